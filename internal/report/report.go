// Package report assembles the consolidated pre-mortem report. The
// structured sections (risk matrix, top risks, mitigation plan) are computed
// deterministically from persisted data; the narrative sections come from
// the generation gateway.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/gateway"
	"github.com/foresight-ai/foresight/internal/risk"
	"github.com/foresight-ai/foresight/internal/types"
)

// ScenarioRef is the report-local projection of a failure scenario.
type ScenarioRef struct {
	ID         types.ID `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Likelihood int      `json:"likelihood"`
	Impact     int      `json:"impact"`
	RiskScore  int      `json:"risk_score"`
}

// MatrixCell groups the scenarios falling into one likelihood/impact bucket
// pair. Empty cells are not emitted.
type MatrixCell struct {
	Likelihood risk.BucketLevel `json:"likelihood"`
	Impact     risk.BucketLevel `json:"impact"`
	Scenarios  []ScenarioRef    `json:"scenarios"`
}

// StrategyRef is the report-local projection of a mitigation strategy.
type StrategyRef struct {
	ID            types.ID              `json:"id"`
	Title         string                `json:"title"`
	Priority      database.PriorityTier `json:"priority"`
	EstimatedCost string                `json:"estimated_cost,omitempty"`
	EstimatedTime string                `json:"estimated_time,omitempty"`
	Effectiveness *int                  `json:"effectiveness,omitempty"`
}

// PlanEntry is the mitigation plan for one scenario. Scenarios without any
// strategies are omitted from the plan.
type PlanEntry struct {
	ScenarioID    types.ID      `json:"scenario_id"`
	ScenarioTitle string        `json:"scenario_title"`
	RiskScore     int           `json:"risk_score"`
	Strategies    []StrategyRef `json:"strategies"`
}

// ContingencyPlan is a fallback plan for one high-severity scenario.
type ContingencyPlan struct {
	ScenarioTitle string `json:"scenario_title"`
	Plan          string `json:"plan"`
}

// Composer builds and persists pre-mortem reports.
type Composer struct {
	scenarios   database.ScenarioDAO
	mitigations database.MitigationDAO
	reports     database.ReportDAO
	generator   gateway.Generator
	topN        int
	logger      *slog.Logger
}

// NewComposer creates a report composer. topN bounds the top-risks section.
func NewComposer(
	scenarios database.ScenarioDAO,
	mitigations database.MitigationDAO,
	reports database.ReportDAO,
	generator gateway.Generator,
	topN int,
	logger *slog.Logger,
) *Composer {
	if topN <= 0 {
		topN = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		scenarios:   scenarios,
		mitigations: mitigations,
		reports:     reports,
		generator:   generator,
		topN:        topN,
		logger:      logger,
	}
}

// Compose builds the report for a simulation and upserts it. Re-running for
// the same simulation replaces the prior report.
func (c *Composer) Compose(ctx context.Context, sim *database.Simulation) (*database.PreMortemReport, error) {
	scenarios, err := c.scenarios.ListBySimulation(ctx, sim.ID)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, types.NewError(types.PRECONDITION_FAILED,
			fmt.Sprintf("simulation %s has no scenarios to report on", sim.ID))
	}

	mitigations, err := c.mitigations.ListBySimulation(ctx, sim.ID)
	if err != nil {
		return nil, err
	}

	draft, err := c.generator.ComposeReport(ctx, sim, scenarios, mitigations)
	if err != nil {
		return nil, err
	}

	ranked := risk.Rank(scenarios)

	report := &database.PreMortemReport{
		SimulationID:     sim.ID,
		ExecutiveSummary: draft.ExecutiveSummary,
	}
	if report.ExecutiveSummary == "" {
		report.ExecutiveSummary = fallbackSummary(sim, ranked)
	}

	if report.RiskMatrix, err = marshalSection(buildMatrix(scenarios)); err != nil {
		return nil, err
	}
	if report.TopRisks, err = marshalSection(topRisks(ranked, c.topN)); err != nil {
		return nil, err
	}
	if report.MitigationPlan, err = marshalSection(buildPlan(ranked, mitigations)); err != nil {
		return nil, err
	}
	if report.ContingencyPlans, err = marshalSection(contingencies(draft)); err != nil {
		return nil, err
	}
	if report.Recommendations, err = marshalSection(recommendations(draft)); err != nil {
		return nil, err
	}

	if err := c.reports.Upsert(ctx, report); err != nil {
		return nil, err
	}

	c.logger.Info("report composed",
		"simulation_id", sim.ID,
		"scenarios", len(scenarios),
		"top_risks", min(c.topN, len(ranked)),
	)

	return report, nil
}

// buildMatrix groups scenarios into likelihood/impact bucket cells, ordered
// most severe first. Cells with no scenarios are skipped.
func buildMatrix(scenarios []*database.FailureScenario) []MatrixCell {
	levels := []risk.BucketLevel{risk.BucketHigh, risk.BucketMedium, risk.BucketLow}

	type key struct{ likelihood, impact risk.BucketLevel }
	cells := make(map[key][]ScenarioRef)
	for _, sc := range scenarios {
		k := key{risk.Bucket(sc.Likelihood), risk.Bucket(sc.Impact)}
		cells[k] = append(cells[k], ref(sc))
	}

	var matrix []MatrixCell
	for _, impact := range levels {
		for _, likelihood := range levels {
			refs := cells[key{likelihood, impact}]
			if len(refs) == 0 {
				continue
			}
			matrix = append(matrix, MatrixCell{
				Likelihood: likelihood,
				Impact:     impact,
				Scenarios:  refs,
			})
		}
	}
	return matrix
}

// topRisks returns up to n ranked scenarios as refs.
func topRisks(ranked []*database.FailureScenario, n int) []ScenarioRef {
	if n > len(ranked) {
		n = len(ranked)
	}
	refs := make([]ScenarioRef, 0, n)
	for _, sc := range ranked[:n] {
		refs = append(refs, ref(sc))
	}
	return refs
}

// buildPlan lists each scenario's prioritized strategies, highest-risk
// scenario first, skipping scenarios with no strategies.
func buildPlan(ranked []*database.FailureScenario, mitigations map[types.ID][]*database.MitigationStrategy) []PlanEntry {
	var plan []PlanEntry
	for _, sc := range ranked {
		strategies := mitigations[sc.ID]
		if len(strategies) == 0 {
			continue
		}
		entry := PlanEntry{
			ScenarioID:    sc.ID,
			ScenarioTitle: sc.Title,
			RiskScore:     sc.RiskScore,
		}
		for _, m := range strategies {
			entry.Strategies = append(entry.Strategies, StrategyRef{
				ID:            m.ID,
				Title:         m.Title,
				Priority:      m.Priority,
				EstimatedCost: m.EstimatedCost,
				EstimatedTime: m.EstimatedTime,
				Effectiveness: m.Effectiveness,
			})
		}
		plan = append(plan, entry)
	}
	return plan
}

// contingencies converts the generated contingency drafts.
func contingencies(draft *gateway.ReportDraft) []ContingencyPlan {
	plans := make([]ContingencyPlan, 0, len(draft.ContingencyPlans))
	for _, p := range draft.ContingencyPlans {
		plans = append(plans, ContingencyPlan{ScenarioTitle: p.ScenarioTitle, Plan: p.Plan})
	}
	return plans
}

// recommendations returns the generated recommendations, never nil.
func recommendations(draft *gateway.ReportDraft) []string {
	if draft.Recommendations == nil {
		return []string{}
	}
	return draft.Recommendations
}

// fallbackSummary produces a minimal summary when the generated narrative is
// missing one.
func fallbackSummary(sim *database.Simulation, ranked []*database.FailureScenario) string {
	if len(ranked) == 0 {
		return fmt.Sprintf("Pre-mortem analysis of %q identified no failure scenarios.", sim.Title)
	}
	top := ranked[0]
	return fmt.Sprintf(
		"Pre-mortem analysis of %q identified %d failure scenarios. The highest-risk scenario is %q (risk score %d).",
		sim.Title, len(ranked), top.Title, top.RiskScore,
	)
}

func ref(sc *database.FailureScenario) ScenarioRef {
	return ScenarioRef{
		ID:         sc.ID,
		Title:      sc.Title,
		Category:   sc.Category,
		Likelihood: sc.Likelihood,
		Impact:     sc.Impact,
		RiskScore:  sc.RiskScore,
	}
}

// marshalSection marshals a structured section for storage.
func marshalSection(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report section: %w", err)
	}
	return data, nil
}
