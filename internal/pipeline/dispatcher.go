package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher hands stage work off for execution after the triggering call
// returns. The production dispatcher runs work on detached goroutines; tests
// use the synchronous one for deterministic ordering.
type Dispatcher interface {
	// Dispatch schedules fn. The context given to fn is detached from the
	// caller's request so in-flight stages survive the triggering request.
	Dispatch(name string, fn func(ctx context.Context))
}

// AsyncDispatcher runs each dispatched unit on its own goroutine.
type AsyncDispatcher struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates the production fire-and-forget dispatcher.
func NewDispatcher(logger *slog.Logger) *AsyncDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncDispatcher{logger: logger}
}

// Dispatch schedules fn on a new goroutine with a detached context.
func (d *AsyncDispatcher) Dispatch(name string, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatched work panicked", "name", name, "panic", r)
			}
		}()
		fn(context.Background())
	}()
}

// Wait blocks until all dispatched work finishes. Used on shutdown.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// syncDispatcher runs dispatched work inline. Test use only.
type syncDispatcher struct{}

// NewSyncDispatcher creates a dispatcher that runs work synchronously on the
// calling goroutine.
func NewSyncDispatcher() Dispatcher {
	return syncDispatcher{}
}

// Dispatch runs fn immediately.
func (syncDispatcher) Dispatch(_ string, fn func(ctx context.Context)) {
	fn(context.Background())
}
