package assign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civicworks/civicd/internal/notify"
	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

// Emitter receives post-commit domain events. Emission must never block or
// fail the assignment path.
type Emitter interface {
	Emit(ev notify.Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(notify.Event) {}

// Engine is the assignment orchestrator: it drains a batch of pending
// reports in priority order and assigns each to a worker with capacity. The
// engine is the sole writer of the pending -> assigned transition.
type Engine struct {
	reports  repository.ReportRepo
	workers  repository.WorkerRepo
	resolver *Resolver
	matcher  *Matcher
	events   Emitter
	batch    int
	logger   *slog.Logger
}

func NewEngine(
	reports repository.ReportRepo,
	workers repository.WorkerRepo,
	departments repository.DepartmentRepo,
	events Emitter,
	maxTasksPerWorker, batchSize int,
	logger *slog.Logger,
) *Engine {
	if events == nil {
		events = nopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Engine{
		reports:  reports,
		workers:  workers,
		resolver: NewResolver(departments),
		matcher:  NewMatcher(workers, maxTasksPerWorker),
		events:   events,
		batch:    batchSize,
		logger:   logger,
	}
}

// RunOnce processes one batch. A failure to even list the pending reports
// aborts the run; everything below that is contained per report, so one bad
// report never starves its siblings. Re-running with nothing newly pending
// is a no-op.
func (e *Engine) RunOnce(ctx context.Context) error {
	pending, err := e.reports.ListPendingByPriority(ctx, e.batch)
	if err != nil {
		return fmt.Errorf("list pending reports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	for i := range pending {
		e.processReport(ctx, &pending[i])
	}

	return nil
}

func (e *Engine) processReport(ctx context.Context, report *models.Report) {
	log := e.logger.With(slog.Int64("report_id", report.ID), slog.String("district", report.District))

	dept, err := e.resolver.Resolve(ctx, report.ProblemType)
	if err != nil {
		log.Error("department resolution failed", slog.Any("err", err))
		return
	}
	if dept == nil {
		log.Warn("no department found for problem type; report stays pending",
			slog.String("problem_type", report.ProblemType),
			slog.String("wanted_department", CanonicalName(report.ProblemType)),
		)
		return
	}

	worker, err := e.matcher.Find(ctx, dept.ID, report.District)
	if err != nil {
		log.Error("worker matching failed", slog.Any("err", err))
		return
	}
	if worker == nil {
		log.Info("no worker with capacity; report stays pending",
			slog.String("department", dept.Name),
		)
		return
	}

	// The conditional update re-checks the status: a concurrent path may
	// have assigned the report since the batch was listed.
	assigned, err := e.reports.AssignReport(ctx, report.ID, worker.ID)
	if err != nil {
		log.Error("assignment failed", slog.Any("err", err))
		return
	}
	if !assigned {
		log.Debug("report no longer pending, skipping")
		return
	}

	log.Info("report assigned",
		slog.Int64("worker_id", worker.ID),
		slog.String("department", dept.Name),
		slog.Float64("priority", report.Priority),
	)

	// post-commit side effects only
	e.events.Emit(notify.Event{
		UserID: worker.UserID,
		Type:   notify.TypeTaskAssigned,
		Title:  "New task assigned",
		Body:   fmt.Sprintf("New task assigned: %q in %s", report.Title, report.District),
		Data:   map[string]string{"report_id": report.PublicID},
	})
	e.events.Emit(notify.Event{
		UserID: report.UserID,
		Type:   notify.TypeReportAssigned,
		Title:  "Report assigned",
		Body:   fmt.Sprintf("Your issue %q has been assigned to a worker.", report.Title),
		Data:   map[string]string{"report_id": report.PublicID},
	})
}
