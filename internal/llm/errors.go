package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/foresight-ai/foresight/internal/types"
)

// Generation error codes.
const (
	ErrProviderNotFound     types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderUnavailable  types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited  types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrInvalidRequest       types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrCompletionFailed     types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrResponseParseFailed  types.ErrorCode = "LLM_RESPONSE_PARSE_FAILED"
	ErrTimeoutExceeded      types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrNetworkFailed        types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var ferr *types.Error
	if !errors.As(err, &ferr) {
		return false
	}

	if ferr.Retryable {
		return true
	}

	switch ferr.Code {
	// Network failures, rate limiting, and transient provider outages may
	// succeed after waiting.
	case ErrNetworkFailed, ErrProviderRateLimited, ErrProviderUnavailable:
		return true

	// Timeouts may succeed with more time.
	case ErrTimeoutExceeded:
		return true

	default:
		return false
	}
}

// TranslateError converts a raw provider/SDK error into a typed generation
// error. Already-typed errors pass through unchanged.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var ferr *types.Error
	if errors.As(err, &ferr) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") || strings.Contains(msg, "api key"):
		return NewAuthError(provider, err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return NewRateLimitError(provider, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return NewTimeoutError(provider, err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection"):
		return NewNetworkError(provider, err)
	default:
		return NewProviderError(provider, err)
	}
}

// NewAuthError creates an authentication error for a provider.
func NewAuthError(provider string, cause error) *types.Error {
	return &types.Error{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", provider),
		Cause:   cause,
	}
}

// NewRateLimitError creates a retryable rate-limit error.
func NewRateLimitError(provider string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrProviderRateLimited,
		Message:   fmt.Sprintf("provider '%s' rate limited the request", provider),
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(provider string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrTimeoutExceeded,
		Message:   fmt.Sprintf("provider '%s' call exceeded its deadline", provider),
		Retryable: true,
		Cause:     cause,
	}
}

// NewNetworkError creates a retryable network error.
func NewNetworkError(provider string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrNetworkFailed,
		Message:   fmt.Sprintf("network failure calling provider '%s'", provider),
		Retryable: true,
		Cause:     cause,
	}
}

// NewProviderError creates a generic provider failure error.
func NewProviderError(provider string, cause error) *types.Error {
	return &types.Error{
		Code:    ErrProviderUnavailable,
		Message: fmt.Sprintf("provider '%s' request failed", provider),
		Cause:   cause,
	}
}

// NewParseError creates an error for unusable model output.
func NewParseError(detail string, cause error) *types.Error {
	return &types.Error{
		Code:    ErrResponseParseFailed,
		Message: detail,
		Cause:   cause,
	}
}
