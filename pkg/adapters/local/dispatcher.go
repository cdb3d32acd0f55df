package local

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

// DefaultInterval is how often the Dispatcher looks for due triggers.
const DefaultInterval = 800 * time.Millisecond

// Sink receives a delivered notification.
type Sink func(ctx context.Context, e router.Event, t reminder.Trigger)

// DispatcherStatus summarizes what the Dispatcher has done.
type DispatcherStatus struct {
	Delivered int       `json:"delivered"`
	LastTick  time.Time `json:"last_tick"`
	LastError string    `json:"last_error,omitempty"`
}

// Dispatcher polls a Notifier and delivers due triggers to a Sink.
type Dispatcher struct {
	*worker.BaseWorker
	notifier *Notifier
	sink     Sink
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc

	mu     sync.Mutex
	status DispatcherStatus
}

// NewDispatcher creates a Dispatcher. A zero interval means DefaultInterval.
func NewDispatcher(n *Notifier, sink Sink, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dispatcher{
		BaseWorker: worker.NewBaseWorker("reminder-dispatcher"),
		notifier:   n,
		sink:       sink,
		interval:   interval,
		logger:     n.logger,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	status := d.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("dispatcher already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.SetStatus(worker.StatusRunning)
	return d.StartFunc(runCtx, d.run)
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.StopRequested = true
		d.cancel()
	}
	return d.BaseWorker.Stop(ctx)
}

func (d *Dispatcher) State() worker.State {
	return d.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (d *Dispatcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("dispatcher panic: %v", recovered)
			d.logger.Error("dispatcher panic", "error", err, "stack", string(debug.Stack()))
		}
	}()

	// Catch up on anything that fell due while nothing was running.
	d.tickAndLog(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.tickAndLog(ctx)
		}
	}
}

func (d *Dispatcher) tickAndLog(ctx context.Context) {
	if _, err := d.Tick(ctx); err != nil {
		d.logger.Error("dispatch failed", "error", err)
	}
}

// Tick delivers every trigger that is due and reports how many it delivered.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	due, err := d.notifier.Claim(ctx)

	d.mu.Lock()
	d.status.LastTick = d.notifier.now()
	if err != nil {
		d.status.LastError = err.Error()
	} else {
		d.status.LastError = ""
		d.status.Delivered += len(due)
	}
	d.mu.Unlock()

	if err != nil {
		return 0, err
	}
	for _, t := range due {
		e := router.Event{
			Type:    router.EventDelivered,
			Payload: router.Payload{NoteID: t.Notification.NoteID()},
		}
		d.logger.Info("reminder delivered", "note", e.Payload.NoteID, "title", t.Notification.Title, "body", t.Notification.Body)
		if d.sink != nil {
			d.sink(ctx, e, t)
		}
	}
	return len(due), nil
}

// Status returns delivery counters.
func (d *Dispatcher) Status() DispatcherStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}
