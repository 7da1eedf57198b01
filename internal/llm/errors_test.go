package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foresight-ai/foresight/internal/types"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", NewRateLimitError("openai", nil), true},
		{"timeout", NewTimeoutError("openai", nil), true},
		{"network", NewNetworkError("openai", nil), true},
		{"auth", NewAuthError("openai", nil), false},
		{"parse", NewParseError("bad json", nil), false},
		{"plain error", errors.New("boom"), false},
		{"explicit retryable flag", types.NewRetryableError(ErrCompletionFailed, "x"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code types.ErrorCode
	}{
		{"auth", "401 unauthorized: invalid api key", ErrProviderUnauthorized},
		{"rate limit", "429 too many requests", ErrProviderRateLimited},
		{"timeout", "context deadline exceeded", ErrTimeoutExceeded},
		{"network", "connection refused", ErrNetworkFailed},
		{"unknown", "something odd happened", ErrProviderUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := TranslateError("test", errors.New(tc.raw))
			assert.True(t, types.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestTranslateErrorPassesThroughTyped(t *testing.T) {
	typed := NewRateLimitError("openai", nil)
	assert.Equal(t, error(typed), TranslateError("openai", typed))
	assert.NoError(t, TranslateError("openai", nil))
}
