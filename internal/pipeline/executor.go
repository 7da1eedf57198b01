package pipeline

import (
	"context"
	"log/slog"
)

// BatchResult accounts for a stage's per-item outcomes.
type BatchResult struct {
	Succeeded int
	Failed    int
}

// Total returns the number of items attempted.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed
}

// Executor runs a batch of per-item generation work sequentially, pacing
// between items and isolating item failures. One item failing never aborts
// the batch; only context cancellation does.
type Executor struct {
	pacer  Pacer
	logger *slog.Logger
}

// NewExecutor creates a stage executor.
func NewExecutor(pacer Pacer, logger *slog.Logger) *Executor {
	if pacer == nil {
		pacer = NewFixedPacer(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{pacer: pacer, logger: logger}
}

// Run invokes fn for each index in [0, count), pacing before every item
// after the first. Item errors are logged and counted, not propagated. The
// returned error is non-nil only when the context ended before all items
// were attempted; the partial result is still valid in that case.
func (e *Executor) Run(ctx context.Context, stage string, count int, fn func(ctx context.Context, i int) error) (BatchResult, error) {
	var result BatchResult

	for i := 0; i < count; i++ {
		if i > 0 {
			if err := e.pacer.Pace(ctx); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := fn(ctx, i); err != nil {
			result.Failed++
			e.logger.Warn("stage item failed",
				"stage", stage,
				"item", i,
				"error", err,
			)
			continue
		}
		result.Succeeded++
	}

	return result, nil
}
