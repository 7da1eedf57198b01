package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foresight-ai/foresight/internal/types"
)

// PreMortemReport is the consolidated report for one simulation. The
// structured sections are stored as JSON documents; their shapes are owned
// by the report package.
type PreMortemReport struct {
	ID               types.ID        `json:"id"`
	SimulationID     types.ID        `json:"simulation_id"`
	ExecutiveSummary string          `json:"executive_summary"`
	RiskMatrix       json.RawMessage `json:"risk_matrix"`
	TopRisks         json.RawMessage `json:"top_risks"`
	MitigationPlan   json.RawMessage `json:"mitigation_plan"`
	ContingencyPlans json.RawMessage `json:"contingency_plans"`
	Recommendations  json.RawMessage `json:"recommendations"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ReportDAO provides database operations for pre-mortem reports.
type ReportDAO interface {
	// Upsert creates the report for a simulation, replacing any prior
	// report for the same simulation rather than duplicating it.
	Upsert(ctx context.Context, report *PreMortemReport) error

	// GetBySimulation retrieves the report for a simulation.
	GetBySimulation(ctx context.Context, simulationID types.ID) (*PreMortemReport, error)
}

// reportDAO implements ReportDAO.
type reportDAO struct {
	db *DB
}

// NewReportDAO creates a new report DAO.
func NewReportDAO(db *DB) ReportDAO {
	return &reportDAO{db: db}
}

// Upsert creates or replaces the report for a simulation.
func (d *reportDAO) Upsert(ctx context.Context, report *PreMortemReport) error {
	if report.ID == "" {
		report.ID = types.NewID()
	}

	query := `
		INSERT INTO premortem_reports (
			id, simulation_id, executive_summary, risk_matrix, top_risks,
			mitigation_plan, contingency_plans, recommendations,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(simulation_id) DO UPDATE SET
			executive_summary = excluded.executive_summary,
			risk_matrix = excluded.risk_matrix,
			top_risks = excluded.top_risks,
			mitigation_plan = excluded.mitigation_plan,
			contingency_plans = excluded.contingency_plans,
			recommendations = excluded.recommendations,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := d.db.ExecContext(
		ctx, query,
		report.ID,
		report.SimulationID,
		report.ExecutiveSummary,
		rawOr(report.RiskMatrix, "{}"),
		rawOr(report.TopRisks, "[]"),
		rawOr(report.MitigationPlan, "[]"),
		rawOr(report.ContingencyPlans, "[]"),
		rawOr(report.Recommendations, "[]"),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}

	return nil
}

// GetBySimulation retrieves the report for a simulation.
func (d *reportDAO) GetBySimulation(ctx context.Context, simulationID types.ID) (*PreMortemReport, error) {
	query := `
		SELECT id, simulation_id, executive_summary, risk_matrix, top_risks,
			mitigation_plan, contingency_plans, recommendations,
			created_at, updated_at
		FROM premortem_reports
		WHERE simulation_id = ?
	`

	var report PreMortemReport
	var matrix, topRisks, plan, contingency, recommendations string
	err := d.db.QueryRowContext(ctx, query, simulationID).Scan(
		&report.ID,
		&report.SimulationID,
		&report.ExecutiveSummary,
		&matrix,
		&topRisks,
		&plan,
		&contingency,
		&recommendations,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no report for simulation %s", simulationID)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report.RiskMatrix = json.RawMessage(matrix)
	report.TopRisks = json.RawMessage(topRisks)
	report.MitigationPlan = json.RawMessage(plan)
	report.ContingencyPlans = json.RawMessage(contingency)
	report.Recommendations = json.RawMessage(recommendations)

	return &report, nil
}

// rawOr returns the JSON document as a string, or the fallback when empty.
func rawOr(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}
