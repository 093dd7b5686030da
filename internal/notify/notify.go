package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is a post-commit domain event addressed to a user. Delivery is
// best-effort: the assignment transaction never waits on it.
type Event struct {
	UserID int64
	Title  string
	Body   string
	Type   string
	Data   map[string]string
}

const (
	TypeTaskAssigned   = "task_assigned"
	TypeReportAssigned = "report_assigned"
)

// Notifier delivers a single event over some channel (push, socket, or
// log-only).
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier writes events to the structured log. It stands in for a real
// delivery channel in deployments without one.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.logger.Info("notification",
		slog.Int64("user_id", ev.UserID),
		slog.String("type", ev.Type),
		slog.String("title", ev.Title),
		slog.String("body", ev.Body),
	)
	return nil
}

// Dispatcher decouples event emission from delivery. Emit never blocks the
// caller; a single worker goroutine drains the queue and swallows delivery
// failures after logging them.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	ch       chan Event
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewDispatcher(notifier Notifier, logger *slog.Logger, queueSize int) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		ch:       make(chan Event, queueSize),
		stop:     make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop drains nothing further and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// Emit enqueues an event without blocking. When the queue is full the event
// is dropped and logged; assignment correctness never depends on delivery.
func (d *Dispatcher) Emit(ev Event) {
	select {
	case d.ch <- ev:
	default:
		d.logger.Warn("notification queue full, dropping event",
			slog.Int64("user_id", ev.UserID),
			slog.String("type", ev.Type),
		)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case ev := <-d.ch:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := d.notifier.Notify(ctx, ev); err != nil {
				d.logger.Warn("notification delivery failed",
					slog.Int64("user_id", ev.UserID),
					slog.String("type", ev.Type),
					slog.Any("err", err),
				)
			}
			cancel()
		}
	}
}
