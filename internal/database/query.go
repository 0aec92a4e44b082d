package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts a query with ? placeholders to dialect-specific placeholders.
// A ? inside a single-quoted literal is left alone.
//
//	input:    "SELECT * FROM runs WHERE id = ? AND tile_set = ?"
//	SQLite:   "SELECT * FROM runs WHERE id = ? AND tile_set = ?"
//	Postgres: "SELECT * FROM runs WHERE id = $1 AND tile_set = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	position := 1
	quoted := false

	for i := 0; i < len(query); i++ {
		switch {
		case query[i] == '\'':
			quoted = !quoted
			result.WriteByte(query[i])
		case query[i] == '?' && !quoted:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(query[i])
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause if the dialect requires it.
//
//	input:    "INSERT INTO runs (tile_set) VALUES (?)", "id"
//	SQLite:   "INSERT INTO runs (tile_set) VALUES (?)"
//	Postgres: "INSERT INTO runs (tile_set) VALUES ($1) RETURNING id"
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InsertID runs an INSERT and returns the generated id, using LastInsertId
// or a RETURNING clause depending on the dialect.
func (qb *QueryBuilder) InsertID(e execer, query, column string, args ...any) (int64, error) {
	q := qb.BuildWithReturning(query, column)
	if qb.dialect.SupportsLastInsertID() {
		result, err := e.Exec(q, args...)
		if err != nil {
			return 0, err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted id: %w", err)
		}
		return id, nil
	}

	var id int64
	if err := e.QueryRow(q, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
