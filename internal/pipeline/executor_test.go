package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorIsolatesItemFailures(t *testing.T) {
	e := NewExecutor(NewFixedPacer(0), nil)

	var attempted []int
	result, err := e.Run(context.Background(), "test", 4, func(_ context.Context, i int) error {
		attempted = append(attempted, i)
		if i == 1 || i == 2 {
			return errors.New("item failed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, attempted, "failures must not abort the batch")
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 4, result.Total())
}

func TestExecutorEmptyBatch(t *testing.T) {
	e := NewExecutor(NewFixedPacer(0), nil)

	result, err := e.Run(context.Background(), "test", 0, func(context.Context, int) error {
		t.Fatal("fn must not be called for an empty batch")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
}

func TestExecutorStopsOnContextCancellation(t *testing.T) {
	e := NewExecutor(NewFixedPacer(0), nil)
	ctx, cancel := context.WithCancel(context.Background())

	result, err := e.Run(ctx, "test", 5, func(_ context.Context, i int) error {
		if i == 1 {
			cancel()
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 2, result.Succeeded, "partial result must survive cancellation")
}

func TestExecutorPacesBetweenItems(t *testing.T) {
	delay := 20 * time.Millisecond
	e := NewExecutor(NewFixedPacer(delay), nil)

	start := time.Now()
	result, err := e.Run(context.Background(), "test", 3, func(context.Context, int) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
	// Two inter-item gaps for three items.
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestPacerZeroDelayDoesNotBlock(t *testing.T) {
	p := NewFixedPacer(0)

	start := time.Now()
	require.NoError(t, p.Pace(context.Background()))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestPacerHonorsCancellation(t *testing.T) {
	p := NewFixedPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, p.Pace(ctx))
}
