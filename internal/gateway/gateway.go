// Package gateway exposes the three generation operations the pipeline
// needs, layered over an llm.Provider. Every call is bounded by a request
// timeout and retried a bounded number of times on retryable provider
// errors; the pipeline treats the backing service as slow, rate-limited,
// and individually failing.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/llm"
	"github.com/foresight-ai/foresight/internal/types"
)

// ScenarioDraft is one failure scenario proposed by the generation service,
// before scoring and persistence.
type ScenarioDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Likelihood  int    `json:"likelihood"`
	Impact      int    `json:"impact"`
	Analysis    string `json:"analysis,omitempty"`
}

// MitigationDraft is one proposed countermeasure, before prioritization.
type MitigationDraft struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedCost string `json:"estimated_cost"`
	EstimatedTime string `json:"estimated_time"`
	Effectiveness *int   `json:"effectiveness,omitempty"`
	Resources     string `json:"resources,omitempty"`
}

// ContingencyDraft is a fallback plan for one high-severity scenario.
type ContingencyDraft struct {
	ScenarioTitle string `json:"scenario_title"`
	Plan          string `json:"plan"`
}

// ReportDraft carries the narrative sections of the report; the structured
// sections (matrix, top risks, mitigation plan) are computed, not generated.
type ReportDraft struct {
	ExecutiveSummary string             `json:"executive_summary"`
	ContingencyPlans []ContingencyDraft `json:"contingency_plans"`
	Recommendations  []string           `json:"recommendations"`
}

// Generator is the gateway interface the pipeline depends on. Tests inject
// a stub returning canned drafts.
type Generator interface {
	// GenerateFailureScenarios proposes failure scenarios for an initiative.
	GenerateFailureScenarios(ctx context.Context, sim *database.Simulation) ([]ScenarioDraft, error)

	// GenerateMitigationStrategies proposes countermeasures for one scenario.
	GenerateMitigationStrategies(ctx context.Context, sim *database.Simulation, sc *database.FailureScenario) ([]MitigationDraft, error)

	// ComposeReport produces the narrative report sections from the full
	// set of persisted scenarios and mitigations.
	ComposeReport(ctx context.Context, sim *database.Simulation, scenarios []*database.FailureScenario, mitigations map[types.ID][]*database.MitigationStrategy) (*ReportDraft, error)
}

// Config tunes gateway behavior.
type Config struct {
	// Model is the provider-specific model identifier.
	Model string

	// RequestTimeout bounds each individual generation call.
	RequestTimeout time.Duration

	// MaxRetries is the number of additional attempts for retryable errors.
	MaxRetries int

	// RetryBackoff is the base delay between attempts; the nth retry waits
	// n times this long. Zero disables the delay.
	RetryBackoff time.Duration

	// Temperature for generation calls.
	Temperature float64

	// ContingencyPlans is how many high-severity scenarios receive a
	// contingency plan in the report narrative.
	ContingencyPlans int
}

// DefaultConfig returns conservative gateway defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:   30 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     2 * time.Second,
		Temperature:      0.7,
		ContingencyPlans: 3,
	}
}

// llmGenerator implements Generator on top of an llm.Provider.
type llmGenerator struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// New creates a Generator backed by the given provider.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) Generator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &llmGenerator{provider: provider, cfg: cfg, logger: logger}
}

// GenerateFailureScenarios proposes failure scenarios for an initiative.
func (g *llmGenerator) GenerateFailureScenarios(ctx context.Context, sim *database.Simulation) ([]ScenarioDraft, error) {
	raw, err := g.complete(ctx, scenarioSystemPrompt, scenarioUserPrompt(sim))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Scenarios []ScenarioDraft `json:"scenarios"`
	}
	if err := g.decode(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Scenarios) == 0 {
		return nil, llm.NewParseError("model returned no scenarios", nil)
	}

	return payload.Scenarios, nil
}

// GenerateMitigationStrategies proposes countermeasures for one scenario.
func (g *llmGenerator) GenerateMitigationStrategies(ctx context.Context, sim *database.Simulation, sc *database.FailureScenario) ([]MitigationDraft, error) {
	raw, err := g.complete(ctx, mitigationSystemPrompt, mitigationUserPrompt(sim, sc))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Mitigations []MitigationDraft `json:"mitigations"`
	}
	if err := g.decode(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Mitigations) == 0 {
		return nil, llm.NewParseError("model returned no mitigations", nil)
	}

	return payload.Mitigations, nil
}

// ComposeReport produces the narrative report sections.
func (g *llmGenerator) ComposeReport(ctx context.Context, sim *database.Simulation, scenarios []*database.FailureScenario, mitigations map[types.ID][]*database.MitigationStrategy) (*ReportDraft, error) {
	raw, err := g.complete(ctx, reportSystemPrompt, reportUserPrompt(sim, scenarios, mitigations, g.cfg.ContingencyPlans))
	if err != nil {
		return nil, err
	}

	var draft ReportDraft
	if err := g.decode(raw, &draft); err != nil {
		return nil, err
	}

	return &draft, nil
}

// complete runs one bounded, retried completion and returns the raw text.
func (g *llmGenerator) complete(ctx context.Context, system, user string) (string, error) {
	req := llm.CompletionRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		Messages: []llm.Message{
			llm.NewSystemMessage(system),
			llm.NewUserMessage(user),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying generation call",
				"provider", g.provider.Name(),
				"attempt", attempt,
				"error", lastErr,
			)
			if err := sleepContext(ctx, time.Duration(attempt)*g.cfg.RetryBackoff); err != nil {
				return "", llm.TranslateError(g.provider.Name(), err)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		resp, err := g.provider.Complete(callCtx, req)
		cancel()

		if err == nil {
			return resp.Message.Content, nil
		}

		lastErr = err
		if !llm.IsRetryable(err) {
			break
		}
	}

	return "", lastErr
}

// decode extracts and unmarshals the JSON document in a model response.
func (g *llmGenerator) decode(response string, v any) error {
	doc, err := llm.ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return llm.NewParseError(fmt.Sprintf("unmarshaling model response: %v", err), err)
	}
	return nil
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
