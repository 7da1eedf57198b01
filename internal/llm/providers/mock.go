package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/foresight-ai/foresight/internal/llm"
)

// MockCall records one request made against the mock provider.
type MockCall struct {
	Request llm.CompletionRequest
}

// MockProvider implements llm.Provider for testing. It replays configured
// responses in order, cycling when exhausted, and records every call.
type MockProvider struct {
	mu            sync.Mutex
	responses     []string
	errs          map[int]error
	responseIndex int
	calls         []MockCall
}

// NewMockProvider creates a new mock provider with canned responses.
func NewMockProvider(responses []string) *MockProvider {
	return &MockProvider{
		responses: responses,
		errs:      make(map[int]error),
	}
}

// FailCall makes the nth call (0-based) return err instead of a response.
func (p *MockProvider) FailCall(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[n] = err
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete replays the next canned response.
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.NewTimeoutError("mock", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.calls)
	p.calls = append(p.calls, MockCall{Request: req})

	if err, ok := p.errs[n]; ok {
		return nil, err
	}

	if len(p.responses) == 0 {
		return nil, llm.NewProviderError("mock", fmt.Errorf("no responses configured"))
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++

	return &llm.CompletionResponse{
		ID:           uuid.New().String(),
		Model:        req.Model,
		Message:      llm.NewAssistantMessage(response),
		FinishReason: llm.FinishReasonStop,
		Usage: llm.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(response) / 4,
			TotalTokens:      10 + len(response)/4,
		},
	}, nil
}

// Calls returns a copy of all recorded calls.
func (p *MockProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MockCall, len(p.calls))
	copy(out, p.calls)
	return out
}
