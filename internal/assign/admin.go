package assign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

// Validation failures for administrative reassignment. These are rejected
// operations, not silent no-ops.
var (
	ErrReportNotFound     = errors.New("report not found")
	ErrReportNotAssigned  = errors.New("report is not currently assigned")
	ErrWorkerNotFound     = errors.New("worker not found")
	ErrWorkerInactive     = errors.New("target worker is inactive")
	ErrWorkerAtCapacity   = errors.New("target worker has no remaining capacity")
	ErrDepartmentMismatch = errors.New("target worker belongs to a different department")
	ErrDistrictMismatch   = errors.New("target worker is in a different district")
	ErrSameWorker         = errors.New("report is already assigned to this worker")
)

// Admin covers the administrative code paths adjacent to the scheduler:
// worker deactivation and manual reassignment. Both respect the same
// capacity and district invariants as the orchestrator.
type Admin struct {
	reports repository.ReportRepo
	workers repository.WorkerRepo
	cap     int
	logger  *slog.Logger
}

func NewAdmin(reports repository.ReportRepo, workers repository.WorkerRepo, maxTasksPerWorker int, logger *slog.Logger) *Admin {
	if maxTasksPerWorker <= 0 {
		maxTasksPerWorker = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{reports: reports, workers: workers, cap: maxTasksPerWorker, logger: logger}
}

// DeactivateWorker soft-deletes a worker and reverts its open reports to
// pending so the orchestrator picks them up again on its next run.
func (a *Admin) DeactivateWorker(ctx context.Context, workerID int64) error {
	w, err := a.workers.GetWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("load worker %d: %w", workerID, err)
	}
	if w == nil {
		return ErrWorkerNotFound
	}

	reverted, err := a.workers.DeactivateWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("deactivate worker %d: %w", workerID, err)
	}

	a.logger.Info("worker deactivated",
		slog.Int64("worker_id", workerID),
		slog.Int64("reports_reverted", reverted),
	)
	return nil
}

// Revert pushes an assigned report back into the pending pool, clearing its
// worker, so the orchestrator can place it again.
func (a *Admin) Revert(ctx context.Context, reportID int64) error {
	report, err := a.reports.GetReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report %d: %w", reportID, err)
	}
	if report == nil {
		return ErrReportNotFound
	}

	moved, err := a.reports.TransitionStatus(ctx, reportID, models.StatusAssigned, models.StatusPending)
	if err != nil {
		return fmt.Errorf("revert report %d: %w", reportID, err)
	}
	if !moved {
		return ErrReportNotAssigned
	}

	a.logger.Info("report reverted to pending", slog.Int64("report_id", reportID))
	return nil
}

// Reassign moves an assigned report to a different worker. The target must
// be active, in the same department as the current worker, in the same
// district as the report, distinct from the current worker, and below the
// capacity cap.
func (a *Admin) Reassign(ctx context.Context, reportID, newWorkerID int64) error {
	report, err := a.reports.GetReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report %d: %w", reportID, err)
	}
	if report == nil {
		return ErrReportNotFound
	}
	if report.AssignedWorkerID == nil {
		return ErrReportNotAssigned
	}
	currentID := *report.AssignedWorkerID
	if currentID == newWorkerID {
		return ErrSameWorker
	}

	current, err := a.workers.GetWorker(ctx, currentID)
	if err != nil {
		return fmt.Errorf("load current worker %d: %w", currentID, err)
	}
	target, err := a.workers.GetWorker(ctx, newWorkerID)
	if err != nil {
		return fmt.Errorf("load target worker %d: %w", newWorkerID, err)
	}
	if target == nil {
		return ErrWorkerNotFound
	}
	if !target.Active {
		return ErrWorkerInactive
	}
	if current != nil && target.DepartmentID != current.DepartmentID {
		return ErrDepartmentMismatch
	}
	if target.District != report.District {
		return ErrDistrictMismatch
	}

	load, err := a.workers.CountAssigned(ctx, newWorkerID)
	if err != nil {
		return fmt.Errorf("count assigned for worker %d: %w", newWorkerID, err)
	}
	if load >= int64(a.cap) {
		return ErrWorkerAtCapacity
	}

	moved, err := a.reports.ReassignReport(ctx, reportID, currentID, newWorkerID)
	if err != nil {
		return fmt.Errorf("reassign report %d: %w", reportID, err)
	}
	if !moved {
		// the report changed state between the read and the update
		return ErrReportNotAssigned
	}

	a.logger.Info("report reassigned",
		slog.Int64("report_id", reportID),
		slog.Int64("from_worker", currentID),
		slog.Int64("to_worker", newWorkerID),
	)
	return nil
}
