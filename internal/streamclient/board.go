package streamclient

import "github.com/lawnchairsociety/tilewfc/internal/server"

// Board mirrors the server's grid from streamed events
type Board struct {
	Rows, Columns int
	Steps         int
	Repairs       int

	codes [][]string
}

// NewBoard creates an empty board sized by a start event
func NewBoard(start server.StartEvent) *Board {
	codes := make([][]string, start.Rows)
	for r := range codes {
		codes[r] = make([]string, start.Columns)
	}
	return &Board{Rows: start.Rows, Columns: start.Columns, codes: codes}
}

// Apply records one collapse. Steps outside the board are ignored.
func (b *Board) Apply(step server.StepEvent) {
	if step.Row < 0 || step.Row >= b.Rows || step.Column < 0 || step.Column >= b.Columns {
		return
	}
	b.codes[step.Row][step.Column] = step.Code
	if step.Repair {
		b.Repairs++
	} else {
		b.Steps++
	}
}

// Codes returns the sides code of every cell, "" for cells not yet collapsed.
// The slices are shared with the board.
func (b *Board) Codes() [][]string {
	return b.codes
}
