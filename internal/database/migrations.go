package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      string
}

// Migrator applies pending schema migrations.
type Migrator interface {
	// Migrate applies all pending migrations.
	Migrate(ctx context.Context) error

	// CurrentVersion returns the current schema version.
	CurrentVersion(ctx context.Context) (int, error)
}

// migrator implements the Migrator interface.
type migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a new database migrator.
func NewMigrator(db *DB) Migrator {
	return &migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

// getMigrations returns all available migrations in order.
func getMigrations() []migration {
	return []migration{
		{
			version: 1,
			name:    "simulations",
			up: `
				CREATE TABLE IF NOT EXISTS simulations (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					context TEXT NOT NULL DEFAULT '{}',
					parameters TEXT NOT NULL DEFAULT '{}',
					status TEXT NOT NULL DEFAULT 'pending',
					error TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					completed_at TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_simulations_status ON simulations(status);
			`,
		},
		{
			version: 2,
			name:    "failure_scenarios",
			up: `
				CREATE TABLE IF NOT EXISTS failure_scenarios (
					id TEXT PRIMARY KEY,
					simulation_id TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					likelihood INTEGER NOT NULL,
					impact INTEGER NOT NULL,
					risk_score INTEGER NOT NULL,
					analysis TEXT NOT NULL DEFAULT '',
					position INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_scenarios_simulation ON failure_scenarios(simulation_id);
			`,
		},
		{
			version: 3,
			name:    "mitigation_strategies",
			up: `
				CREATE TABLE IF NOT EXISTS mitigation_strategies (
					id TEXT PRIMARY KEY,
					scenario_id TEXT NOT NULL REFERENCES failure_scenarios(id) ON DELETE CASCADE,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					priority TEXT NOT NULL DEFAULT 'medium',
					estimated_cost TEXT NOT NULL DEFAULT '',
					estimated_time TEXT NOT NULL DEFAULT '',
					effectiveness INTEGER,
					resources TEXT NOT NULL DEFAULT '',
					position INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE INDEX IF NOT EXISTS idx_mitigations_scenario ON mitigation_strategies(scenario_id);
			`,
		},
		{
			version: 4,
			name:    "premortem_reports",
			up: `
				CREATE TABLE IF NOT EXISTS premortem_reports (
					id TEXT PRIMARY KEY,
					simulation_id TEXT NOT NULL UNIQUE REFERENCES simulations(id) ON DELETE CASCADE,
					executive_summary TEXT NOT NULL DEFAULT '',
					risk_matrix TEXT NOT NULL DEFAULT '{}',
					top_risks TEXT NOT NULL DEFAULT '[]',
					mitigation_plan TEXT NOT NULL DEFAULT '[]',
					contingency_plans TEXT NOT NULL DEFAULT '[]',
					recommendations TEXT NOT NULL DEFAULT '[]',
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
	}
}

// Migrate applies all pending migrations in version order.
func (m *migrator) Migrate(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	pending := make([]migration, 0, len(m.migrations))
	for _, mig := range m.migrations {
		if mig.version > current {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })

	for _, mig := range pending {
		err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.up); err != nil {
				return fmt.Errorf("applying migration %d (%s): %w", mig.version, mig.name, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				mig.version, mig.name,
			); err != nil {
				return fmt.Errorf("recording migration %d: %w", mig.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration version.
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return 0, err
	}

	var version sql.NullInt64
	err := m.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// ensureVersionTable creates the migration bookkeeping table if absent.
func (m *migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}
