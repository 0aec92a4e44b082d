package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

// DriverName returns "postgres" for the lib/pq driver.
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// Placeholder returns "$N" for the given position (PostgreSQL uses numbered placeholders).
func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (d *PostgresDialect) SupportsLastInsertID() bool {
	return false
}

func (d *PostgresDialect) ReturningClause(column string) string {
	return fmt.Sprintf(" RETURNING %s", column)
}

// InitStatements is empty: foreign keys are always enforced in PostgreSQL.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

func (d *PostgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			tile_set TEXT NOT NULL,
			fingerprint TEXT NOT NULL DEFAULT '',
			seed BIGINT NOT NULL,
			grid_rows INTEGER NOT NULL,
			grid_columns INTEGER NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			collapsed INTEGER NOT NULL DEFAULT 0,
			contradictions INTEGER NOT NULL DEFAULT 0,
			error_tiles INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS run_cells (
			run_id BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			cell_row INTEGER NOT NULL,
			cell_col INTEGER NOT NULL,
			tile_name TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL DEFAULT '',
			is_error BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (run_id, cell_row, cell_col)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_tile_set ON runs(tile_set)`,
	}
}

// IsDuplicateKeyError returns true for a unique_violation (SQLSTATE 23505).
func (d *PostgresDialect) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "23505")
}
