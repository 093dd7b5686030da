package assign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civicworks/civicd/pkg/repository"
)

// ResetDailyCounts zeroes the advisory per-worker daily counter. It runs as
// a scheduled job once per day; the authoritative load computation never
// reads this counter, so a failed reset only affects reporting.
func ResetDailyCounts(ctx context.Context, workers repository.WorkerRepo, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	changed, err := workers.ResetDailyCounts(ctx)
	if err != nil {
		return fmt.Errorf("reset daily task counts: %w", err)
	}

	logger.Info("daily task counts reset", slog.Int64("workers", changed))
	return nil
}
