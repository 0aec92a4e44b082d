package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
)

// ErrRunNotFound is returned when no archived run has the requested id
var ErrRunNotFound = errors.New("run not found")

// Run is one archived solve
type Run struct {
	ID             int64
	TileSet        string
	Fingerprint    string
	Seed           int64
	Rows           int
	Columns        int
	Steps          int
	Collapsed      int
	Contradictions int
	ErrorTiles     int
	CreatedAt      time.Time
	Cells          []RunCell // empty in ListRuns results
}

// RunCell is the final state of one grid cell
type RunCell struct {
	Row      int
	Column   int
	TileName string
	Code     string
	IsError  bool
}

// Grid returns the archived codes as a rows x columns matrix, "" for open cells
func (r *Run) Grid() [][]string {
	out := make([][]string, r.Rows)
	for i := range out {
		out[i] = make([]string, r.Columns)
	}
	for _, c := range r.Cells {
		if c.Row >= 0 && c.Row < r.Rows && c.Column >= 0 && c.Column < r.Columns {
			out[c.Row][c.Column] = c.Code
		}
	}
	return out
}

// RunFromGrid builds an archive record from the current state of grid
func RunFromGrid(grid *wfc.Grid, seed int64, steps int, fingerprint string) *Run {
	stats := grid.Stats()
	run := &Run{
		TileSet:        grid.TileSetName(),
		Fingerprint:    fingerprint,
		Seed:           seed,
		Rows:           grid.Rows(),
		Columns:        grid.Columns(),
		Steps:          steps,
		Collapsed:      stats.Collapsed,
		Contradictions: stats.Contradictions,
		ErrorTiles:     stats.ErrorTiles,
	}
	for _, c := range grid.Cells() {
		cell := RunCell{Row: c.Row, Column: c.Column}
		if chosen := c.Chosen(); chosen != nil {
			cell.TileName = chosen.Name
			cell.Code = chosen.Code()
			cell.IsError = chosen.IsErrorTile()
		}
		run.Cells = append(run.Cells, cell)
	}
	return run
}

// SaveRun stores a run and its cells in one transaction and returns the new id.
// run.ID is filled in, as is run.CreatedAt when it was zero.
func (d *Database) SaveRun(run *Run) (int64, error) {
	if run == nil {
		return 0, fmt.Errorf("nil run")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC().Truncate(time.Second)
	id, err := d.qb.InsertID(tx, `
		INSERT INTO runs (tile_set, fingerprint, seed, grid_rows, grid_columns, steps,
		                  collapsed, contradictions, error_tiles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, "id",
		run.TileSet, run.Fingerprint, run.Seed, run.Rows, run.Columns, run.Steps,
		run.Collapsed, run.Contradictions, run.ErrorTiles, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	insertCell := d.qb.Build(`
		INSERT INTO run_cells (run_id, cell_row, cell_col, tile_name, code, is_error)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for _, c := range run.Cells {
		if _, err := tx.Exec(insertCell, id, c.Row, c.Column, c.TileName, c.Code, c.IsError); err != nil {
			if d.dialect.IsDuplicateKeyError(err) {
				return 0, fmt.Errorf("cell (%d, %d) listed twice: %w", c.Row, c.Column, err)
			}
			return 0, fmt.Errorf("failed to insert run cell: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.ID = id
	run.CreatedAt = createdAt
	return id, nil
}

const runColumns = `id, tile_set, fingerprint, seed, grid_rows, grid_columns, steps,
	collapsed, contradictions, error_tiles, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var r Run
	var createdAt any
	if err := s.Scan(&r.ID, &r.TileSet, &r.Fingerprint, &r.Seed, &r.Rows, &r.Columns,
		&r.Steps, &r.Collapsed, &r.Contradictions, &r.ErrorTiles, &createdAt); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTimestamp(createdAt)
	return &r, nil
}

// parseTimestamp accepts what either driver hands back for a TIMESTAMP column
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		return parseTimestampString(t)
	case []byte:
		return parseTimestampString(string(t))
	}
	return time.Time{}
}

func parseTimestampString(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// GetRun loads a run with all of its cells
func (d *Database) GetRun(id int64) (*Run, error) {
	row := d.db.QueryRow(d.qb.Build(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := d.db.Query(d.qb.Build(`
		SELECT cell_row, cell_col, tile_name, code, is_error
		FROM run_cells
		WHERE run_id = ?
		ORDER BY cell_row, cell_col`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c RunCell
		if err := rows.Scan(&c.Row, &c.Column, &c.TileName, &c.Code, &c.IsError); err != nil {
			return nil, fmt.Errorf("failed to scan run cell: %w", err)
		}
		run.Cells = append(run.Cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run cells: %w", err)
	}

	return run, nil
}

// ListRuns returns runs newest first without their cells. An empty tileSet
// lists every tile set; limit <= 0 means no limit.
func (d *Database) ListRuns(tileSet string, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if tileSet != "" {
		query += ` WHERE tile_set = ?`
		args = append(args, tileSet)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and, by cascade, its cells
func (d *Database) DeleteRun(id int64) error {
	result, err := d.db.Exec(d.qb.Build(`DELETE FROM runs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}
