package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foresight-ai/foresight/internal/config"
	"github.com/foresight-ai/foresight/internal/database"
	"github.com/foresight-ai/foresight/internal/gateway"
	"github.com/foresight-ai/foresight/internal/llm"
	"github.com/foresight-ai/foresight/internal/llm/providers"
	"github.com/foresight-ai/foresight/internal/pipeline"
	"github.com/foresight-ai/foresight/internal/report"
)

// app wires the database, gateway, and pipeline together for one command
// invocation.
type app struct {
	db          *database.DB
	simulations database.SimulationDAO
	scenarios   database.ScenarioDAO
	mitigations database.MitigationDAO
	reports     database.ReportDAO
	controller  *pipeline.Controller
	dispatcher  *pipeline.AsyncDispatcher
}

// newApp opens the database, runs pending migrations, and assembles the
// pipeline from config.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	dbCfg := database.DefaultConfig(cfg.Database.Path)
	dbCfg.MaxOpenConns = cfg.Database.MaxConnections
	dbCfg.BusyTimeout = cfg.Database.BusyTimeout
	db, err := database.OpenWithConfig(dbCfg)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	provider, err := providers.NewProvider(llm.ProviderConfig{
		Type:    llm.ProviderType(cfg.LLM.Provider),
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	logger := slog.Default()

	generator := gateway.New(provider, gateway.Config{
		Model:            cfg.LLM.Model,
		RequestTimeout:   cfg.LLM.RequestTimeout,
		MaxRetries:       cfg.LLM.MaxRetries,
		RetryBackoff:     gateway.DefaultConfig().RetryBackoff,
		Temperature:      cfg.LLM.Temperature,
		ContingencyPlans: cfg.Pipeline.ContingencyPlans,
	}, logger)

	a := &app{
		db:          db,
		simulations: database.NewSimulationDAO(db),
		scenarios:   database.NewScenarioDAO(db),
		mitigations: database.NewMitigationDAO(db),
		reports:     database.NewReportDAO(db),
		dispatcher:  pipeline.NewDispatcher(logger),
	}

	composer := report.NewComposer(a.scenarios, a.mitigations, a.reports, generator, cfg.Pipeline.TopRisks, logger)
	a.controller = pipeline.NewController(
		a.simulations, a.scenarios, a.mitigations,
		generator, composer,
		pipeline.NewExecutor(pipeline.NewFixedPacer(cfg.Pipeline.ItemDelay), logger),
		a.dispatcher,
		logger,
	)

	return a, nil
}

// Close waits for in-flight stages and closes the database.
func (a *app) Close() {
	a.dispatcher.Wait()
	a.db.Close()
}
