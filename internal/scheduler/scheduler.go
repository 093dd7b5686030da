package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of scheduled work. Errors are logged, not retried; periodic
// jobs get their retry for free on the next tick.
type Job func(ctx context.Context) error

type entry struct {
	name string
	job  Job
	next func(now time.Time) time.Time
}

// Scheduler runs registered jobs on their schedule, one goroutine per job.
// Runs of the same job never overlap; a slow run simply delays the next one.
type Scheduler struct {
	logger  *slog.Logger
	entries []entry
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	started bool
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger, stop: make(chan struct{})}
}

// Every registers a job that runs on a fixed interval. Registration must
// happen before Start.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.entries = append(s.entries, entry{
		name: name,
		job:  job,
		next: func(now time.Time) time.Time { return now.Add(interval) },
	})
}

// DailyAt registers a job that runs once a day at the given local time.
func (s *Scheduler) DailyAt(name string, hour, minute int, job Job) {
	s.entries = append(s.entries, entry{
		name: name,
		job:  job,
		next: func(now time.Time) time.Time {
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if !next.After(now) {
				next = next.AddDate(0, 0, 1)
			}
			return next
		},
	})
}

// Start launches one goroutine per registered job.
func (s *Scheduler) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true
	for i := range s.entries {
		s.wg.Add(1)
		go s.run(ctx, s.entries[i])
	}
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.entries)))
}

// Stop signals all job goroutines to stop and waits for in-flight runs.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, e entry) {
	defer s.wg.Done()

	timer := time.NewTimer(time.Until(e.next(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.logger.Info("context canceled, job exiting", slog.String("job", e.name))
			return
		case <-timer.C:
			s.execute(ctx, e)
			timer.Reset(time.Until(e.next(time.Now())))
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e entry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", slog.String("job", e.name), slog.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := e.job(ctx); err != nil {
		s.logger.Error("job failed", slog.String("job", e.name), slog.Any("err", err))
		return
	}
	s.logger.Debug("job finished",
		slog.String("job", e.name),
		slog.Duration("took", time.Since(start)),
	)
}
