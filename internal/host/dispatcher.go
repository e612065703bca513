package host

import (
	"context"

	"github.com/rs/zerolog"
)

// Dispatcher is the single-consumer queue for host-mutating actions.
// The host forbids kicks and broadcasts from arbitrary goroutines, so
// producers (the tick loop, event handlers) only ever enqueue; one
// goroutine owned by the server command drains the queue in order.
type Dispatcher struct {
	tasks  chan func(context.Context)
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		tasks:  make(chan func(context.Context), 64),
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Submit enqueues a task for the sync context. When the queue is full
// the task is dropped and logged rather than blocking the producer;
// a dropped kick is retried naturally on the next evaluation cycle.
func (d *Dispatcher) Submit(task func(context.Context)) {
	select {
	case d.tasks <- task:
	default:
		d.logger.Warn().Msg("Sync queue full, dropping host action")
	}
}

// Run drains the queue until the context is cancelled. It must be
// called from exactly one goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case task := <-d.tasks:
			task(ctx)
		case <-ctx.Done():
			return
		}
	}
}
