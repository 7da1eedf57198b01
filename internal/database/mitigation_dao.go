package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/foresight-ai/foresight/internal/types"
)

// PriorityTier classifies a mitigation strategy's urgency.
type PriorityTier string

const (
	PriorityCritical PriorityTier = "critical"
	PriorityHigh     PriorityTier = "high"
	PriorityMedium   PriorityTier = "medium"
	PriorityLow      PriorityTier = "low"
)

// Rank returns the sort rank of the tier, critical first.
func (p PriorityTier) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// IsValid reports whether p is a known tier.
func (p PriorityTier) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// MitigationStrategy represents a proposed countermeasure for one scenario.
// Strategies are created in bulk during the mitigation stage and are
// immutable afterward.
type MitigationStrategy struct {
	ID          types.ID     `json:"id"`
	ScenarioID  types.ID     `json:"scenario_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	// Priority is a deterministic function of effectiveness and cost,
	// assigned by the prioritizer before persistence.
	Priority      PriorityTier `json:"priority"`
	EstimatedCost string       `json:"estimated_cost,omitempty"`
	EstimatedTime string       `json:"estimated_time,omitempty"`
	// Effectiveness is a 0-100 score; nil when the generation service did
	// not supply one.
	Effectiveness *int   `json:"effectiveness,omitempty"`
	Resources     string `json:"resources,omitempty"`
	// Position preserves prioritized order within the owning scenario.
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// MitigationDAO provides database operations for mitigation strategies.
type MitigationDAO interface {
	// Create creates a new mitigation strategy.
	Create(ctx context.Context, m *MitigationStrategy) error

	// ListByScenario lists strategies for a scenario in prioritized order.
	ListByScenario(ctx context.Context, scenarioID types.ID) ([]*MitigationStrategy, error)

	// ListBySimulation lists all strategies belonging to a simulation's
	// scenarios, grouped by scenario, in prioritized order.
	ListBySimulation(ctx context.Context, simulationID types.ID) (map[types.ID][]*MitigationStrategy, error)
}

// mitigationDAO implements MitigationDAO.
type mitigationDAO struct {
	db *DB
}

// NewMitigationDAO creates a new mitigation DAO.
func NewMitigationDAO(db *DB) MitigationDAO {
	return &mitigationDAO{db: db}
}

// Create creates a new mitigation strategy.
func (d *mitigationDAO) Create(ctx context.Context, m *MitigationStrategy) error {
	if m.ID == "" {
		m.ID = types.NewID()
	}
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}

	var effectiveness sql.NullInt64
	if m.Effectiveness != nil {
		effectiveness = sql.NullInt64{Int64: int64(*m.Effectiveness), Valid: true}
	}

	query := `
		INSERT INTO mitigation_strategies (
			id, scenario_id, title, description, priority,
			estimated_cost, estimated_time, effectiveness, resources,
			position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	_, err := d.db.ExecContext(
		ctx, query,
		m.ID,
		m.ScenarioID,
		m.Title,
		m.Description,
		m.Priority,
		m.EstimatedCost,
		m.EstimatedTime,
		effectiveness,
		m.Resources,
		m.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create mitigation: %w", err)
	}

	return nil
}

// ListByScenario lists strategies for a scenario in prioritized order.
func (d *mitigationDAO) ListByScenario(ctx context.Context, scenarioID types.ID) ([]*MitigationStrategy, error) {
	query := `
		SELECT id, scenario_id, title, description, priority,
			estimated_cost, estimated_time, effectiveness, resources,
			position, created_at
		FROM mitigation_strategies
		WHERE scenario_id = ?
		ORDER BY position ASC
	`

	rows, err := d.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mitigations: %w", err)
	}
	defer rows.Close()

	return collectMitigations(rows)
}

// ListBySimulation lists all strategies for a simulation keyed by scenario.
func (d *mitigationDAO) ListBySimulation(ctx context.Context, simulationID types.ID) (map[types.ID][]*MitigationStrategy, error) {
	query := `
		SELECT m.id, m.scenario_id, m.title, m.description, m.priority,
			m.estimated_cost, m.estimated_time, m.effectiveness, m.resources,
			m.position, m.created_at
		FROM mitigation_strategies m
		JOIN failure_scenarios s ON s.id = m.scenario_id
		WHERE s.simulation_id = ?
		ORDER BY s.position ASC, m.position ASC
	`

	rows, err := d.db.QueryContext(ctx, query, simulationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mitigations: %w", err)
	}
	defer rows.Close()

	all, err := collectMitigations(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[types.ID][]*MitigationStrategy)
	for _, m := range all {
		grouped[m.ScenarioID] = append(grouped[m.ScenarioID], m)
	}
	return grouped, nil
}

// collectMitigations drains rows into a slice.
func collectMitigations(rows *sql.Rows) ([]*MitigationStrategy, error) {
	var out []*MitigationStrategy
	for rows.Next() {
		var m MitigationStrategy
		var effectiveness sql.NullInt64
		err := rows.Scan(
			&m.ID,
			&m.ScenarioID,
			&m.Title,
			&m.Description,
			&m.Priority,
			&m.EstimatedCost,
			&m.EstimatedTime,
			&effectiveness,
			&m.Resources,
			&m.Position,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mitigation: %w", err)
		}
		if effectiveness.Valid {
			v := int(effectiveness.Int64)
			m.Effectiveness = &v
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
