package providers

import (
	"fmt"

	"github.com/foresight-ai/foresight/internal/llm"
	"github.com/foresight-ai/foresight/internal/types"
)

// NewProvider creates a new generation provider based on the configuration.
func NewProvider(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Type {
	case llm.ProviderOpenAI:
		return NewOpenAIProvider(cfg)

	case llm.ProviderAnthropic:
		return NewAnthropicProvider(cfg)

	case llm.ProviderGoogle:
		return NewGoogleProvider(cfg)

	case llm.ProviderOllama:
		return NewOllamaProvider(cfg)

	case llm.ProviderMock:
		return NewMockProvider([]string{"{}"}), nil

	default:
		return nil, types.NewError(llm.ErrProviderNotFound,
			fmt.Sprintf("unknown provider type: %s", cfg.Type))
	}
}
