// Package pipeline drives a simulation through its three generation stages:
// failure scenarios, mitigation strategies, and the consolidated report.
// Stage transitions are monotonic; per-item generation failures are isolated
// while stage-wide failures move the simulation to failed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/gateway"
	"github.com/foresight-ai/foresight/internal/mitigation"
	"github.com/foresight-ai/foresight/internal/risk"
	"github.com/foresight-ai/foresight/internal/types"
)

// ReportComposer builds and persists the report for a simulation.
// *report.Composer is the production implementation.
type ReportComposer interface {
	Compose(ctx context.Context, sim *database.Simulation) (*database.PreMortemReport, error)
}

// Controller orchestrates the simulation pipeline.
type Controller struct {
	simulations database.SimulationDAO
	scenarios   database.ScenarioDAO
	mitigations database.MitigationDAO
	generator   gateway.Generator
	composer    ReportComposer
	executor    *Executor
	dispatcher  Dispatcher
	logger      *slog.Logger
}

// NewController creates a pipeline controller.
func NewController(
	simulations database.SimulationDAO,
	scenarios database.ScenarioDAO,
	mitigations database.MitigationDAO,
	generator gateway.Generator,
	composer ReportComposer,
	executor *Executor,
	dispatcher Dispatcher,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		simulations: simulations,
		scenarios:   scenarios,
		mitigations: mitigations,
		generator:   generator,
		composer:    composer,
		executor:    executor,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Start begins the pipeline for a pending simulation and dispatches the
// scenario stage. Calling Start on a simulation that already ran, finished,
// or failed returns SIMULATION_INVALID_STATE and changes nothing.
func (c *Controller) Start(ctx context.Context, id types.ID) error {
	sim, err := c.requireStatus(ctx, id, database.SimulationStatusPending)
	if err != nil {
		return err
	}

	if err := c.simulations.UpdateStatus(ctx, sim.ID, database.SimulationStatusInProgress); err != nil {
		return err
	}

	c.logger.Info("simulation started", "simulation_id", sim.ID, "title", sim.Title)

	c.dispatcher.Dispatch("scenario_stage", func(ctx context.Context) {
		if err := c.RunScenarioStage(ctx, sim.ID); err != nil {
			c.logger.Error("scenario stage failed", "simulation_id", sim.ID, "error", err)
		}
	})

	return nil
}

// RunScenarioStage generates and persists failure scenarios for a running
// simulation. Generation failure is systemic and fails the simulation;
// failure to persist one scenario only loses that scenario. At least one
// persisted scenario is required to advance.
func (c *Controller) RunScenarioStage(ctx context.Context, id types.ID) error {
	sim, err := c.requireStatus(ctx, id, database.SimulationStatusInProgress)
	if err != nil {
		return err
	}

	drafts, err := c.generator.GenerateFailureScenarios(ctx, sim)
	if err != nil {
		return c.failSimulation(ctx, sim.ID, types.WrapError(types.STAGE_SYSTEMIC_FAILURE,
			"scenario generation failed", err))
	}

	result, runErr := c.executor.Run(ctx, "scenarios", len(drafts), func(ctx context.Context, i int) error {
		d := drafts[i]
		likelihood := risk.Clamp(d.Likelihood)
		impact := risk.Clamp(d.Impact)
		return c.scenarios.Create(ctx, &database.FailureScenario{
			SimulationID: sim.ID,
			Title:        d.Title,
			Description:  d.Description,
			Category:     d.Category,
			Likelihood:   likelihood,
			Impact:       impact,
			RiskScore:    risk.Score(likelihood, impact),
			Analysis:     d.Analysis,
			Position:     i,
		})
	})
	if runErr != nil {
		return c.failSimulation(ctx, sim.ID, types.WrapError(types.STAGE_SYSTEMIC_FAILURE,
			"scenario stage interrupted", runErr))
	}

	c.logger.Info("scenario stage finished",
		"simulation_id", sim.ID,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	if result.Succeeded == 0 {
		return c.failSimulation(ctx, sim.ID, types.NewError(types.STAGE_NO_ITEMS,
			"no scenarios could be persisted"))
	}

	if err := c.simulations.UpdateStatus(ctx, sim.ID, database.SimulationStatusScenariosGenerated); err != nil {
		return err
	}

	c.dispatcher.Dispatch("mitigation_stage", func(ctx context.Context) {
		if err := c.RunMitigationStage(ctx, sim.ID); err != nil {
			c.logger.Error("mitigation stage failed", "simulation_id", sim.ID, "error", err)
		}
	})

	return nil
}

// RunMitigationStage generates mitigation strategies per scenario. A
// scenario whose generation fails keeps its row and simply has no
// strategies; the stage always advances when at least the batch itself
// completed. Strategies are prioritized per scenario before persistence.
func (c *Controller) RunMitigationStage(ctx context.Context, id types.ID) error {
	sim, err := c.requireStatus(ctx, id, database.SimulationStatusScenariosGenerated)
	if err != nil {
		return err
	}

	scenarios, err := c.scenarios.ListBySimulation(ctx, sim.ID)
	if err != nil {
		return c.failSimulation(ctx, sim.ID, types.WrapError(types.STAGE_SYSTEMIC_FAILURE,
			"loading scenarios for mitigation stage", err))
	}
	// Precondition violations reject without mutating state.
	if len(scenarios) == 0 {
		return types.NewError(types.PRECONDITION_FAILED,
			"no scenarios available for mitigation generation")
	}

	result, runErr := c.executor.Run(ctx, "mitigations", len(scenarios), func(ctx context.Context, i int) error {
		return c.mitigateScenario(ctx, sim, scenarios[i])
	})
	if runErr != nil {
		return c.failSimulation(ctx, sim.ID, types.WrapError(types.STAGE_SYSTEMIC_FAILURE,
			"mitigation stage interrupted", runErr))
	}

	c.logger.Info("mitigation stage finished",
		"simulation_id", sim.ID,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	if err := c.simulations.UpdateStatus(ctx, sim.ID, database.SimulationStatusMitigationsGenerated); err != nil {
		return err
	}

	c.dispatcher.Dispatch("report_stage", func(ctx context.Context) {
		if err := c.RunReportStage(ctx, sim.ID); err != nil {
			c.logger.Error("report stage failed", "simulation_id", sim.ID, "error", err)
		}
	})

	return nil
}

// mitigateScenario generates, prioritizes, and persists the strategies for
// one scenario.
func (c *Controller) mitigateScenario(ctx context.Context, sim *database.Simulation, sc *database.FailureScenario) error {
	drafts, err := c.generator.GenerateMitigationStrategies(ctx, sim, sc)
	if err != nil {
		return err
	}

	strategies := make([]*database.MitigationStrategy, 0, len(drafts))
	for _, d := range drafts {
		strategies = append(strategies, &database.MitigationStrategy{
			ScenarioID:    sc.ID,
			Title:         d.Title,
			Description:   d.Description,
			EstimatedCost: d.EstimatedCost,
			EstimatedTime: d.EstimatedTime,
			Effectiveness: d.Effectiveness,
			Resources:     d.Resources,
		})
	}

	for _, m := range mitigation.Prioritize(strategies) {
		if err := c.mitigations.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// RunReportStage composes and persists the report, completing the
// simulation. Report failure fails the simulation; analysis data is kept.
func (c *Controller) RunReportStage(ctx context.Context, id types.ID) error {
	sim, err := c.requireStatus(ctx, id, database.SimulationStatusMitigationsGenerated)
	if err != nil {
		return err
	}

	if _, err := c.composer.Compose(ctx, sim); err != nil {
		return c.failSimulation(ctx, sim.ID, types.WrapError(types.STAGE_SYSTEMIC_FAILURE,
			"report composition failed", err))
	}

	if err := c.simulations.MarkCompleted(ctx, sim.ID); err != nil {
		return err
	}

	c.logger.Info("simulation completed", "simulation_id", sim.ID)
	return nil
}

// requireStatus loads the simulation and enforces the stage's entry guard.
func (c *Controller) requireStatus(ctx context.Context, id types.ID, want database.SimulationStatus) (*database.Simulation, error) {
	sim, err := c.simulations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sim.Status != want {
		return nil, types.NewError(types.SIMULATION_INVALID_STATE,
			fmt.Sprintf("simulation %s is %s, expected %s", id, sim.Status, want))
	}
	return sim, nil
}

// failSimulation moves the simulation to failed, recording the cause, and
// returns the original error. A failure while recording is logged but never
// masks the cause.
func (c *Controller) failSimulation(ctx context.Context, id types.ID, cause error) error {
	if err := c.simulations.MarkFailed(ctx, id, cause.Error()); err != nil {
		c.logger.Error("failed to record simulation failure",
			"simulation_id", id,
			"cause", cause,
			"error", err,
		)
	}
	return cause
}
