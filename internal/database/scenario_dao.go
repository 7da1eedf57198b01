package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/foresight-ai/foresight/internal/types"
)

// FailureScenario represents one hypothesized way the initiative could fail.
// Scenarios are created in bulk during the scenario stage and are immutable
// afterward except for attaching mitigations.
type FailureScenario struct {
	ID           types.ID `json:"id"`
	SimulationID types.ID `json:"simulation_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Likelihood   int      `json:"likelihood"`
	Impact       int      `json:"impact"`
	// RiskScore is derived from (likelihood, impact) at creation time and
	// persisted for query efficiency. Never independently mutated.
	RiskScore int    `json:"risk_score"`
	Analysis  string `json:"analysis,omitempty"`
	// Position preserves generation order so ranking ties are reproducible.
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// ScenarioDAO provides database operations for failure scenarios.
type ScenarioDAO interface {
	// Create creates a new failure scenario.
	Create(ctx context.Context, sc *FailureScenario) error

	// GetByID retrieves a scenario by ID.
	GetByID(ctx context.Context, id types.ID) (*FailureScenario, error)

	// ListBySimulation lists all scenarios for a simulation in generation
	// order.
	ListBySimulation(ctx context.Context, simulationID types.ID) ([]*FailureScenario, error)

	// CountBySimulation returns the number of persisted scenarios for a
	// simulation.
	CountBySimulation(ctx context.Context, simulationID types.ID) (int, error)
}

// scenarioDAO implements ScenarioDAO.
type scenarioDAO struct {
	db *DB
}

// NewScenarioDAO creates a new scenario DAO.
func NewScenarioDAO(db *DB) ScenarioDAO {
	return &scenarioDAO{db: db}
}

// Create creates a new failure scenario.
func (d *scenarioDAO) Create(ctx context.Context, sc *FailureScenario) error {
	if sc.ID == "" {
		sc.ID = types.NewID()
	}

	query := `
		INSERT INTO failure_scenarios (
			id, simulation_id, title, description, category,
			likelihood, impact, risk_score, analysis, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	_, err := d.db.ExecContext(
		ctx, query,
		sc.ID,
		sc.SimulationID,
		sc.Title,
		sc.Description,
		sc.Category,
		sc.Likelihood,
		sc.Impact,
		sc.RiskScore,
		sc.Analysis,
		sc.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}

	return nil
}

// GetByID retrieves a scenario by ID.
func (d *scenarioDAO) GetByID(ctx context.Context, id types.ID) (*FailureScenario, error) {
	query := `
		SELECT id, simulation_id, title, description, category,
			likelihood, impact, risk_score, analysis, position, created_at
		FROM failure_scenarios
		WHERE id = ?
	`

	sc, err := scanScenario(d.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scenario %s not found", id)
		}
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}

	return sc, nil
}

// ListBySimulation lists all scenarios for a simulation in generation order.
func (d *scenarioDAO) ListBySimulation(ctx context.Context, simulationID types.ID) ([]*FailureScenario, error) {
	query := `
		SELECT id, simulation_id, title, description, category,
			likelihood, impact, risk_score, analysis, position, created_at
		FROM failure_scenarios
		WHERE simulation_id = ?
		ORDER BY position ASC
	`

	rows, err := d.db.QueryContext(ctx, query, simulationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []*FailureScenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, sc)
	}

	return scenarios, rows.Err()
}

// CountBySimulation returns the number of persisted scenarios.
func (d *scenarioDAO) CountBySimulation(ctx context.Context, simulationID types.ID) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM failure_scenarios WHERE simulation_id = ?",
		simulationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scenarios: %w", err)
	}
	return count, nil
}

// scanScenario scans a scenario row.
func scanScenario(row scanner) (*FailureScenario, error) {
	var sc FailureScenario
	err := row.Scan(
		&sc.ID,
		&sc.SimulationID,
		&sc.Title,
		&sc.Description,
		&sc.Category,
		&sc.Likelihood,
		&sc.Impact,
		&sc.RiskScore,
		&sc.Analysis,
		&sc.Position,
		&sc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}
