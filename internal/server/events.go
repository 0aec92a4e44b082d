package server

import (
	"fmt"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
)

// Request actions
const (
	ActionSolve    = "solve"
	ActionTileSets = "tile_sets"
)

// Event types written to the client
const (
	EventStart    = "start"
	EventStep     = "step"
	EventDone     = "done"
	EventTileSets = "tile_sets"
	EventError    = "error"
)

// Request is one message from the client. An empty action means solve.
type Request struct {
	Action  string `json:"action"`
	TileSet string `json:"tile_set"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Seed    int64  `json:"seed"`
	DelayMS int    `json:"delay_ms"`

	// NoRepair leaves contradictions open instead of placing the error tile.
	NoRepair bool `json:"no_repair"`
}

func (r *Request) validate(maxCells int) error {
	if r.TileSet == "" {
		return fmt.Errorf("tile_set is required")
	}
	if r.Rows < 0 || r.Columns < 0 {
		return fmt.Errorf("grid size %dx%d is negative", r.Rows, r.Columns)
	}
	if maxCells > 0 {
		// bound each side first so the product cannot overflow
		if r.Rows > maxCells || r.Columns > maxCells {
			return fmt.Errorf("grid size %dx%d exceeds the limit of %d cells", r.Rows, r.Columns, maxCells)
		}
		if r.Rows*r.Columns > maxCells {
			return fmt.Errorf("grid of %d cells exceeds the limit of %d", r.Rows*r.Columns, maxCells)
		}
	}
	if r.DelayMS < 0 || r.DelayMS > maxDelayMS {
		return fmt.Errorf("delay_ms must be between 0 and %d", maxDelayMS)
	}
	return nil
}

// key identifies a seeded request, whose result is fully determined.
// Unseeded requests have no key.
func (r *Request) key() string {
	if r.Seed == 0 {
		return ""
	}
	return fmt.Sprintf("%s/%dx%d/%d/%t", r.TileSet, r.Rows, r.Columns, r.Seed, r.NoRepair)
}

// StartEvent opens a solve and tells the client how to lay out the grid
type StartEvent struct {
	Type       string `json:"type"`
	TileSet    string `json:"tile_set"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	Seed       int64  `json:"seed"`
	CellWidth  int    `json:"cell_width"`
	CellHeight int    `json:"cell_height"`
}

// StepEvent reports a single collapse
type StepEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Row     int    `json:"row"`
	Column  int    `json:"column"`
	Tile    string `json:"tile"`
	Code    string `json:"code"`
	Entropy int    `json:"entropy"`
	Repair  bool   `json:"repair,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

func newStepEvent(step wfc.Step) StepEvent {
	ev := StepEvent{
		Type:    EventStep,
		Index:   step.Index,
		Row:     step.Row,
		Column:  step.Column,
		Entropy: step.Entropy,
		Repair:  step.Repair,
	}
	if step.Tile != nil {
		ev.Tile = step.Tile.Name
		ev.Code = step.Tile.Code()
		ev.Error = step.Tile.IsErrorTile()
	}
	return ev
}

// DoneEvent closes a solve
type DoneEvent struct {
	Type           string `json:"type"`
	Steps          int    `json:"steps"`
	Repaired       int    `json:"repaired"`
	Collapsed      int    `json:"collapsed"`
	Open           int    `json:"open"`           // open cells with candidates left
	Contradictions int    `json:"contradictions"` // open cells with none
	ErrorTiles     int    `json:"error_tiles"`
	RunID          int64  `json:"run_id,omitempty"`
}

// TileSetsEvent lists the tile sets a client may solve with
type TileSetsEvent struct {
	Type  string   `json:"type"`
	Names []string `json:"names"`
}

// ErrorEvent reports a rejected request or a failed solve
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: err.Error()}
}
