package pipeline

import (
	"context"
	"time"
)

// Pacer spaces out successive calls to the generation service so batch
// stages stay inside provider rate limits.
type Pacer interface {
	// Pace blocks for the configured delay or until the context is done.
	Pace(ctx context.Context) error
}

// fixedPacer waits a fixed delay between items.
type fixedPacer struct {
	delay time.Duration
}

// NewFixedPacer creates a pacer with a fixed inter-item delay. A zero or
// negative delay never blocks, which is what tests want.
func NewFixedPacer(delay time.Duration) Pacer {
	return &fixedPacer{delay: delay}
}

// Pace blocks for the delay or until the context is done.
func (p *fixedPacer) Pace(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
