package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/gateway"
	"github.com/foresight-ai/foresight/internal/report"
	"github.com/foresight-ai/foresight/internal/types"
)

// scriptedGenerator drives the controller with canned drafts and per-call
// failure hooks.
type scriptedGenerator struct {
	scenarioDrafts []gateway.ScenarioDraft
	scenarioErr    error

	mitigationDrafts []gateway.MitigationDraft
	// failMitigationFor fails mitigation generation for scenarios whose
	// title appears here.
	failMitigationFor map[string]error

	reportDraft *gateway.ReportDraft
	reportErr   error
}

func (g *scriptedGenerator) GenerateFailureScenarios(_ context.Context, _ *database.Simulation) ([]gateway.ScenarioDraft, error) {
	if g.scenarioErr != nil {
		return nil, g.scenarioErr
	}
	return g.scenarioDrafts, nil
}

func (g *scriptedGenerator) GenerateMitigationStrategies(_ context.Context, _ *database.Simulation, sc *database.FailureScenario) ([]gateway.MitigationDraft, error) {
	if err, ok := g.failMitigationFor[sc.Title]; ok {
		return nil, err
	}
	return g.mitigationDrafts, nil
}

func (g *scriptedGenerator) ComposeReport(_ context.Context, _ *database.Simulation, _ []*database.FailureScenario, _ map[types.ID][]*database.MitigationStrategy) (*gateway.ReportDraft, error) {
	if g.reportErr != nil {
		return nil, g.reportErr
	}
	return g.reportDraft, nil
}

func intp(v int) *int { return &v }

func defaultGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		scenarioDrafts: []gateway.ScenarioDraft{
			{Title: "Churn outpaces acquisition", Category: "market", Likelihood: 8, Impact: 9},
			{Title: "Key hire leaves", Category: "people", Likelihood: 4, Impact: 8},
			{Title: "Cloud costs balloon", Category: "financial", Likelihood: 15, Impact: -2},
		},
		mitigationDrafts: []gateway.MitigationDraft{
			{Title: "Retention program", EstimatedCost: "medium", Effectiveness: intp(85)},
			{Title: "Pricing experiment", EstimatedCost: "low", Effectiveness: intp(55)},
		},
		reportDraft: &gateway.ReportDraft{
			ExecutiveSummary: "Concentrated market risk.",
			Recommendations:  []string{"Instrument retention early."},
		},
	}
}

type harness struct {
	controller  *Controller
	simulations database.SimulationDAO
	scenarios   database.ScenarioDAO
	mitigations database.MitigationDAO
	reports     database.ReportDAO
	sim         *database.Simulation
}

func newHarness(t *testing.T, gen gateway.Generator) *harness {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))

	h := &harness{
		simulations: database.NewSimulationDAO(db),
		scenarios:   database.NewScenarioDAO(db),
		mitigations: database.NewMitigationDAO(db),
		reports:     database.NewReportDAO(db),
	}

	composer := report.NewComposer(h.scenarios, h.mitigations, h.reports, gen, 5, nil)
	h.controller = NewController(
		h.simulations, h.scenarios, h.mitigations,
		gen, composer,
		NewExecutor(NewFixedPacer(0), nil),
		NewSyncDispatcher(),
		nil,
	)

	h.sim = &database.Simulation{Title: "Marketplace launch"}
	require.NoError(t, h.simulations.Create(context.Background(), h.sim))

	return h
}

func (h *harness) status(t *testing.T) database.SimulationStatus {
	t.Helper()
	sim, err := h.simulations.GetByID(context.Background(), h.sim.ID)
	require.NoError(t, err)
	return sim.Status
}

func TestPipelineRunsToCompletion(t *testing.T) {
	h := newHarness(t, defaultGenerator())

	require.NoError(t, h.controller.Start(context.Background(), h.sim.ID))

	// With the sync dispatcher, Start runs all stages inline.
	assert.Equal(t, database.SimulationStatusCompleted, h.status(t))

	scenarios, err := h.scenarios.ListBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	assert.Equal(t, "Churn outpaces acquisition", scenarios[0].Title)
	assert.Equal(t, 72, scenarios[0].RiskScore)
	// Out-of-range likelihood/impact clamped, not rejected.
	assert.Equal(t, 10, scenarios[2].Likelihood)
	assert.Equal(t, 1, scenarios[2].Impact)

	mitigations, err := h.mitigations.ListBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	for _, sc := range scenarios {
		require.Len(t, mitigations[sc.ID], 2, "scenario %q missing strategies", sc.Title)
		// Prioritized order: the more effective strategy first.
		assert.Equal(t, "Retention program", mitigations[sc.ID][0].Title)
		assert.Equal(t, database.PriorityCritical, mitigations[sc.ID][0].Priority)
	}

	stored, err := h.reports.GetBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	assert.Equal(t, "Concentrated market risk.", stored.ExecutiveSummary)

	var topRisks []report.ScenarioRef
	require.NoError(t, json.Unmarshal(stored.TopRisks, &topRisks))
	require.NotEmpty(t, topRisks)
	assert.Equal(t, "Churn outpaces acquisition", topRisks[0].Title)
}

func TestStartRejectsNonPendingSimulation(t *testing.T) {
	h := newHarness(t, defaultGenerator())

	require.NoError(t, h.controller.Start(context.Background(), h.sim.ID))
	require.Equal(t, database.SimulationStatusCompleted, h.status(t))

	// Re-running a finished simulation is an invalid-state error, and the
	// stored analysis is untouched.
	err := h.controller.Start(context.Background(), h.sim.ID)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.SIMULATION_INVALID_STATE))
	assert.Equal(t, database.SimulationStatusCompleted, h.status(t))
}

func TestStartUnknownSimulation(t *testing.T) {
	h := newHarness(t, defaultGenerator())

	err := h.controller.Start(context.Background(), types.NewID())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.SIMULATION_NOT_FOUND))
}

func TestScenarioGenerationFailureFailsSimulation(t *testing.T) {
	gen := defaultGenerator()
	gen.scenarioErr = errors.New("provider down")
	h := newHarness(t, gen)

	err := h.controller.Start(context.Background(), h.sim.ID)
	// Start itself succeeds; the dispatched stage fails the simulation.
	require.NoError(t, err)
	assert.Equal(t, database.SimulationStatusFailed, h.status(t))

	sim, err := h.simulations.GetByID(context.Background(), h.sim.ID)
	require.NoError(t, err)
	assert.Contains(t, sim.Error, "scenario generation failed")
}

func TestMitigationItemFailureIsIsolated(t *testing.T) {
	gen := defaultGenerator()
	gen.failMitigationFor = map[string]error{
		"Key hire leaves": errors.New("rate limited"),
	}
	h := newHarness(t, gen)

	require.NoError(t, h.controller.Start(context.Background(), h.sim.ID))

	// One scenario lost its strategies; the pipeline still completed.
	assert.Equal(t, database.SimulationStatusCompleted, h.status(t))

	scenarios, err := h.scenarios.ListBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	require.Len(t, scenarios, 3, "failed mitigation must not remove the scenario")

	mitigations, err := h.mitigations.ListBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	for _, sc := range scenarios {
		if sc.Title == "Key hire leaves" {
			assert.Empty(t, mitigations[sc.ID])
		} else {
			assert.Len(t, mitigations[sc.ID], 2)
		}
	}

	// The mitigation-less scenario is skipped in the plan but still ranked.
	stored, err := h.reports.GetBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	var plan []report.PlanEntry
	require.NoError(t, json.Unmarshal(stored.MitigationPlan, &plan))
	assert.Len(t, plan, 2)
}

func TestReportFailureFailsSimulation(t *testing.T) {
	gen := defaultGenerator()
	gen.reportErr = errors.New("provider down")
	h := newHarness(t, gen)

	require.NoError(t, h.controller.Start(context.Background(), h.sim.ID))
	assert.Equal(t, database.SimulationStatusFailed, h.status(t))

	// Scenarios and mitigations survive the report failure.
	scenarios, err := h.scenarios.ListBySimulation(context.Background(), h.sim.ID)
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)
}

func TestMitigationStageWithoutScenariosRejectsWithoutMutating(t *testing.T) {
	h := newHarness(t, defaultGenerator())

	// A simulation that claims scenarios were generated but has none
	// persisted: the stage must refuse without touching its status.
	sim := &database.Simulation{
		Title:  "out of order",
		Status: database.SimulationStatusScenariosGenerated,
	}
	require.NoError(t, h.simulations.Create(context.Background(), sim))

	err := h.controller.RunMitigationStage(context.Background(), sim.ID)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.PRECONDITION_FAILED))

	got, err := h.simulations.GetByID(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.Equal(t, database.SimulationStatusScenariosGenerated, got.Status)
	assert.Empty(t, got.Error)
}

func TestRunScenarioStageRequiresInProgress(t *testing.T) {
	h := newHarness(t, defaultGenerator())

	err := h.controller.RunScenarioStage(context.Background(), h.sim.ID)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.SIMULATION_INVALID_STATE))
	assert.Equal(t, database.SimulationStatusPending, h.status(t))
}

func TestRunReportStageRequiresMitigationsGenerated(t *testing.T) {
	h := newHarness(t, defaultGenerator())

	err := h.controller.RunReportStage(context.Background(), h.sim.ID)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.SIMULATION_INVALID_STATE))
}

func TestEmptyScenarioBatchFailsSimulation(t *testing.T) {
	gen := defaultGenerator()
	gen.scenarioDrafts = nil
	h := newHarness(t, gen)

	require.NoError(t, h.controller.Start(context.Background(), h.sim.ID))
	assert.Equal(t, database.SimulationStatusFailed, h.status(t))

	sim, err := h.simulations.GetByID(context.Background(), h.sim.ID)
	require.NoError(t, err)
	assert.Contains(t, sim.Error, "no scenarios")
}
