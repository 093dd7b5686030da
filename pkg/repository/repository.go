package repository

import (
	"context"

	"github.com/civicworks/civicd/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
}

type DepartmentRepo interface {
	CreateDepartment(ctx context.Context, name string) (int64, error)
	// GetDepartmentByName matches the canonical name case-insensitively.
	GetDepartmentByName(ctx context.Context, name string) (*models.Department, error)
	// FindDepartmentLike does a case-insensitive substring match and returns
	// the first hit by id, or nil when nothing matches.
	FindDepartmentLike(ctx context.Context, fragment string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

type WorkerRepo interface {
	CreateWorker(ctx context.Context, w *models.Worker) (int64, error)
	GetWorker(ctx context.Context, id int64) (*models.Worker, error)
	GetWorkerByUser(ctx context.Context, userID int64) (*models.Worker, error)
	// ActiveWorkers returns active workers of a department within a district,
	// ordered by worker id ascending.
	ActiveWorkers(ctx context.Context, departmentID int64, district string) ([]models.Worker, error)
	// CountAssigned is the authoritative load: the live number of reports
	// currently assigned to the worker. The advisory daily counter is never
	// used for capacity decisions.
	CountAssigned(ctx context.Context, workerID int64) (int64, error)
	// ResetDailyCounts zeroes the advisory counter for all workers in a
	// single bulk update and reports how many rows changed.
	ResetDailyCounts(ctx context.Context) (int64, error)
	// DeactivateWorker flags the owning user inactive and atomically reverts
	// every pending/assigned report of the worker back to pending with no
	// worker. Returns the number of reports reverted.
	DeactivateWorker(ctx context.Context, workerID int64) (int64, error)
}

type ReportRepo interface {
	CreateReport(ctx context.Context, r *models.Report) (int64, error)
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	// ListPendingByPriority returns up to limit pending reports ordered by
	// priority descending, oldest first on ties.
	ListPendingByPriority(ctx context.Context, limit int) ([]models.Report, error)
	ListReportsByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Report, error)
	ListReportsByWorker(ctx context.Context, workerID int64) ([]models.Report, error)
	ListReportsByDistrict(ctx context.Context, district string, limit, offset int) ([]models.Report, error)
	// CountPendingNear counts pending reports within radiusMeters of the
	// given point.
	CountPendingNear(ctx context.Context, lon, lat, radiusMeters float64) (int64, error)
	// AssignReport atomically moves a pending report to assigned and bumps
	// the worker's advisory counter in the same transaction. Returns false
	// when the report was no longer pending.
	AssignReport(ctx context.Context, reportID, workerID int64) (bool, error)
	// TransitionStatus performs a conditional status update and returns
	// false when the report was not in the expected state.
	TransitionStatus(ctx context.Context, reportID int64, from, to models.ReportStatus) (bool, error)
	// ReassignReport moves an assigned report from one worker to another.
	// Returns false when the report is not currently assigned to fromWorker.
	ReassignReport(ctx context.Context, reportID, fromWorker, toWorker int64) (bool, error)
}
