package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(SIMULATION_NOT_FOUND, "no such simulation")
	assert.Equal(t, "[SIMULATION_NOT_FOUND] no such simulation", err.Error())

	wrapped := WrapError(DB_QUERY_FAILED, "loading scenarios", errors.New("disk I/O error"))
	assert.Equal(t, "[DB_QUERY_FAILED] loading scenarios: disk I/O error", wrapped.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(DB_OPEN_FAILED, "opening database", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", NewError(PRECONDITION_FAILED, "no scenarios persisted"))

	assert.True(t, errors.Is(err, NewError(PRECONDITION_FAILED, "different message")))
	assert.False(t, errors.Is(err, NewError(STAGE_NO_ITEMS, "no scenarios persisted")))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(SIMULATION_INVALID_STATE, "already completed"))

	assert.True(t, HasCode(err, SIMULATION_INVALID_STATE))
	assert.False(t, HasCode(err, SIMULATION_NOT_FOUND))
	assert.False(t, HasCode(errors.New("plain"), SIMULATION_NOT_FOUND))
}

func TestRetryableFlag(t *testing.T) {
	assert.False(t, NewError(DB_QUERY_FAILED, "x").Retryable)
	assert.True(t, NewRetryableError(DB_QUERY_FAILED, "x").Retryable)
}
