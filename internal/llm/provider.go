package llm

import (
	"context"
)

// Provider defines the interface all text-generation providers implement.
// It is a unified abstraction over different completion services (Anthropic
// Claude, OpenAI GPT, Google Gemini, local Ollama models). The pipeline
// treats every implementation as slow, rate-limited, and individually
// failing.
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai").
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response; callers
	// bound it with a context deadline.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderType represents the type of generation provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// ProviderConfig contains configuration for a specific provider.
type ProviderConfig struct {
	Type    ProviderType `json:"type"`
	Model   string       `json:"model,omitempty"`
	APIKey  string       `json:"api_key,omitempty"`
	BaseURL string       `json:"base_url,omitempty"`
}
