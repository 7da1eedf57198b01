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

// SimulationStatus represents the current status of a pre-mortem simulation.
// Transitions are monotonic and one-directional; failed is a terminal
// absorbing state reachable from any running status.
type SimulationStatus string

const (
	// SimulationStatusPending indicates the simulation record exists but no
	// generation has been attempted.
	SimulationStatusPending SimulationStatus = "pending"
	// SimulationStatusInProgress indicates scenario generation is running.
	SimulationStatusInProgress SimulationStatus = "in_progress"
	// SimulationStatusScenariosGenerated indicates the scenario stage
	// finished and at least one scenario was persisted.
	SimulationStatusScenariosGenerated SimulationStatus = "scenarios_generated"
	// SimulationStatusMitigationsGenerated indicates the mitigation stage
	// finished without systemic failure.
	SimulationStatusMitigationsGenerated SimulationStatus = "mitigations_generated"
	// SimulationStatusCompleted indicates the report was persisted. Terminal.
	SimulationStatusCompleted SimulationStatus = "completed"
	// SimulationStatusFailed indicates a stage-level failure. Terminal.
	SimulationStatusFailed SimulationStatus = "failed"
)

// legalTransitions is the closed transition table for the pipeline state
// machine. Anything not listed here is an illegal transition.
var legalTransitions = map[SimulationStatus][]SimulationStatus{
	SimulationStatusPending:              {SimulationStatusInProgress},
	SimulationStatusInProgress:           {SimulationStatusScenariosGenerated, SimulationStatusFailed},
	SimulationStatusScenariosGenerated:   {SimulationStatusMitigationsGenerated, SimulationStatusFailed},
	SimulationStatusMitigationsGenerated: {SimulationStatusCompleted, SimulationStatusFailed},
	SimulationStatusCompleted:            {},
	SimulationStatusFailed:               {},
}

// IsValid reports whether s is a known status value.
func (s SimulationStatus) IsValid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// IsTerminal reports whether s is a terminal status.
func (s SimulationStatus) IsTerminal() bool {
	return s == SimulationStatusCompleted || s == SimulationStatusFailed
}

// CanTransitionTo reports whether the transition s -> next is legal.
func (s SimulationStatus) CanTransitionTo(next SimulationStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InitiativeContext describes the business initiative under analysis.
type InitiativeContext struct {
	BusinessType string `json:"business_type,omitempty"`
	Timeline     string `json:"timeline,omitempty"`
	Budget       string `json:"budget,omitempty"`
	TeamSize     int    `json:"team_size,omitempty"`
}

// SimulationParameters tunes how the analysis is generated.
type SimulationParameters struct {
	RiskTolerance string   `json:"risk_tolerance,omitempty"`
	FocusAreas    []string `json:"focus_areas,omitempty"`
}

// Simulation represents one pre-mortem run over a single initiative.
type Simulation struct {
	ID          types.ID             `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Context     InitiativeContext    `json:"context"`
	Parameters  SimulationParameters `json:"parameters"`
	Status      SimulationStatus     `json:"status"`
	// Error records the triggering error when the simulation failed.
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SimulationDAO provides database operations for simulations.
type SimulationDAO interface {
	// Create creates a new simulation.
	Create(ctx context.Context, sim *Simulation) error

	// GetByID retrieves a simulation by ID.
	GetByID(ctx context.Context, id types.ID) (*Simulation, error)

	// List lists all simulations, optionally filtered by status.
	List(ctx context.Context, status SimulationStatus) ([]*Simulation, error)

	// UpdateStatus updates the status of a simulation.
	UpdateStatus(ctx context.Context, id types.ID, status SimulationStatus) error

	// MarkFailed transitions a simulation to failed, recording the
	// triggering error for observability.
	MarkFailed(ctx context.Context, id types.ID, cause string) error

	// MarkCompleted transitions a simulation to completed and stamps the
	// completion time.
	MarkCompleted(ctx context.Context, id types.ID) error
}

// simulationDAO implements SimulationDAO.
type simulationDAO struct {
	db *DB
}

// NewSimulationDAO creates a new simulation DAO.
func NewSimulationDAO(db *DB) SimulationDAO {
	return &simulationDAO{db: db}
}

// Create creates a new simulation.
func (d *simulationDAO) Create(ctx context.Context, sim *Simulation) error {
	if sim.ID == "" {
		sim.ID = types.NewID()
	}
	if sim.Status == "" {
		sim.Status = SimulationStatusPending
	}

	contextJSON, err := json.Marshal(sim.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	parametersJSON, err := json.Marshal(sim.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	query := `
		INSERT INTO simulations (
			id, title, description, context, parameters, status, error,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	_, err = d.db.ExecContext(
		ctx, query,
		sim.ID,
		sim.Title,
		sim.Description,
		string(contextJSON),
		string(parametersJSON),
		sim.Status,
		sim.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}

	return nil
}

// GetByID retrieves a simulation by ID.
func (d *simulationDAO) GetByID(ctx context.Context, id types.ID) (*Simulation, error) {
	query := `
		SELECT id, title, description, context, parameters, status, error,
			created_at, updated_at, completed_at
		FROM simulations
		WHERE id = ?
	`

	sim, err := scanSimulation(d.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewError(types.SIMULATION_NOT_FOUND,
				fmt.Sprintf("simulation %s not found", id))
		}
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}

	return sim, nil
}

// List lists all simulations, newest first, optionally filtered by status.
func (d *simulationDAO) List(ctx context.Context, status SimulationStatus) ([]*Simulation, error) {
	query := `
		SELECT id, title, description, context, parameters, status, error,
			created_at, updated_at, completed_at
		FROM simulations
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	var sims []*Simulation
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		sims = append(sims, sim)
	}

	return sims, rows.Err()
}

// UpdateStatus updates the status of a simulation. Illegal transitions are
// rejected without writing.
func (d *simulationDAO) UpdateStatus(ctx context.Context, id types.ID, status SimulationStatus) error {
	current, err := d.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(status) {
		return illegalTransition(id, current, status)
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE simulations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		status, id, current,
	)
	if err != nil {
		return fmt.Errorf("failed to update simulation status: %w", err)
	}
	return requireRow(result, id)
}

// MarkFailed transitions a simulation to failed and records the cause.
func (d *simulationDAO) MarkFailed(ctx context.Context, id types.ID, cause string) error {
	current, err := d.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(SimulationStatusFailed) {
		return illegalTransition(id, current, SimulationStatusFailed)
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE simulations SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		SimulationStatusFailed, cause, id, current,
	)
	if err != nil {
		return fmt.Errorf("failed to mark simulation failed: %w", err)
	}
	return requireRow(result, id)
}

// MarkCompleted transitions a simulation to completed and stamps completion.
func (d *simulationDAO) MarkCompleted(ctx context.Context, id types.ID) error {
	current, err := d.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(SimulationStatusCompleted) {
		return illegalTransition(id, current, SimulationStatusCompleted)
	}

	result, err := d.db.ExecContext(ctx,
		`UPDATE simulations
		SET status = ?, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		SimulationStatusCompleted, id, current,
	)
	if err != nil {
		return fmt.Errorf("failed to mark simulation completed: %w", err)
	}
	return requireRow(result, id)
}

// currentStatus reads the persisted status for a transition check.
func (d *simulationDAO) currentStatus(ctx context.Context, id types.ID) (SimulationStatus, error) {
	var status SimulationStatus
	err := d.db.QueryRowContext(ctx,
		"SELECT status FROM simulations WHERE id = ?", id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", types.NewError(types.SIMULATION_NOT_FOUND,
				fmt.Sprintf("simulation %s not found", id))
		}
		return "", fmt.Errorf("failed to read simulation status: %w", err)
	}
	return status, nil
}

// illegalTransition builds the rejection error for a forbidden status write.
func illegalTransition(id types.ID, from, to SimulationStatus) error {
	return types.NewError(types.SIMULATION_INVALID_STATE,
		fmt.Sprintf("simulation %s cannot transition from %s to %s", id, from, to))
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanSimulation scans a simulation row.
func scanSimulation(row scanner) (*Simulation, error) {
	var sim Simulation
	var contextJSON, parametersJSON string
	var completedAt sql.NullTime

	err := row.Scan(
		&sim.ID,
		&sim.Title,
		&sim.Description,
		&contextJSON,
		&parametersJSON,
		&sim.Status,
		&sim.Error,
		&sim.CreatedAt,
		&sim.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if contextJSON != "" {
		if err := json.Unmarshal([]byte(contextJSON), &sim.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	if parametersJSON != "" {
		if err := json.Unmarshal([]byte(parametersJSON), &sim.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
		}
	}
	if completedAt.Valid {
		sim.CompletedAt = &completedAt.Time
	}

	return &sim, nil
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, id types.ID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return types.NewError(types.SIMULATION_NOT_FOUND,
			fmt.Sprintf("simulation %s not found", id))
	}
	return nil
}
