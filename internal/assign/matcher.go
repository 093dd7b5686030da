package assign

import (
	"context"
	"fmt"

	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

// Matcher selects the least-loaded active worker of a department within a
// district, subject to the per-worker capacity cap. Load is always the live
// count of assigned reports; the advisory daily counter can drift across
// concurrent writers and is never consulted.
type Matcher struct {
	workers repository.WorkerRepo
	cap     int
}

func NewMatcher(workers repository.WorkerRepo, cap int) *Matcher {
	return &Matcher{workers: workers, cap: cap}
}

// Find returns nil when no in-district worker has capacity. That is a normal
// outcome: the report stays pending until the next run.
func (m *Matcher) Find(ctx context.Context, departmentID int64, district string) (*models.Worker, error) {
	candidates, err := m.workers.ActiveWorkers(ctx, departmentID, district)
	if err != nil {
		return nil, fmt.Errorf("list active workers: %w", err)
	}

	var best *models.Worker
	var bestLoad int64
	for i := range candidates {
		c := &candidates[i]
		load, err := m.workers.CountAssigned(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("count assigned for worker %d: %w", c.ID, err)
		}
		if load >= int64(m.cap) {
			continue
		}
		// candidates arrive ordered by id ascending, so a strict comparison
		// keeps the lowest id on load ties
		if best == nil || load < bestLoad {
			best = c
			bestLoad = load
		}
	}

	return best, nil
}
