package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one versioned schema step. Steps run in order inside a single
// transaction each and are recorded in schema_migrations, so reapplying on
// startup is a no-op.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS resources (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT,
				location TEXT,
				open_hour INTEGER NOT NULL DEFAULT 0,
				close_hour INTEGER NOT NULL DEFAULT 24,
				open_24_hours INTEGER NOT NULL DEFAULT 0,
				restricted INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (open_hour >= 0 AND open_hour <= 23),
				CHECK (close_hour >= 1 AND close_hour <= 24),
				CHECK (open_24_hours = 1 OR open_hour < close_hour)
			)`,
			`CREATE TABLE IF NOT EXISTS reservations (
				id TEXT PRIMARY KEY,
				resource_id TEXT NOT NULL REFERENCES resources(id),
				requester_id TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'denied', 'cancelled', 'completed')),
				justification TEXT,
				denial_reason TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (start_time < end_time)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_resource_time
				ON reservations (resource_id, start_time, end_time)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_status_end
				ON reservations (status, end_time)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_requester
				ON reservations (requester_id)`,
		},
	},
}

// Migrate brings the schema up to the current version.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range m.statements {
				if _, err := tx.Exec(statement); err != nil {
					return fmt.Errorf("migration %d failed: %w", m.version, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))",
				m.version,
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func migrationApplied(ctx context.Context, pool *ConnectionPool, version int) (bool, error) {
	var count int
	err := pool.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}
