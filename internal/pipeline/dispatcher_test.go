package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsWork(t *testing.T) {
	d := NewDispatcher(nil)

	var ran atomic.Bool
	d.Dispatch("work", func(ctx context.Context) {
		assert.NoError(t, ctx.Err(), "dispatched context must be live")
		ran.Store(true)
	})

	d.Wait()
	assert.True(t, ran.Load())
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d := NewDispatcher(nil)

	d.Dispatch("explodes", func(context.Context) {
		panic("boom")
	})

	// Wait returning at all proves the panic was contained.
	d.Wait()
}

func TestSyncDispatcherRunsInline(t *testing.T) {
	var ran bool
	NewSyncDispatcher().Dispatch("work", func(context.Context) {
		ran = true
	})
	assert.True(t, ran)
}
