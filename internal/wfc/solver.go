package wfc

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Step records one collapse made by the solver
type Step struct {
	Index       int
	Row, Column int
	Tile        *Tile
	Entropy     int  // candidates the cell had when it was picked
	Repair      bool // forced collapse of a contradiction
}

// Observer is called after every collapse the solver makes
type Observer func(Step)

// Option configures a Solver
type Option func(*Solver)

// WithDelay pauses between steps so a renderer can follow along
func WithDelay(d time.Duration) Option {
	return func(s *Solver) { s.delay = d }
}

// WithObserver registers a callback for every collapse
func WithObserver(o Observer) Option {
	return func(s *Solver) { s.observer = o }
}

// Result summarises a complete solve
type Result struct {
	Steps    int
	Repaired int
	Stats    Stats
}

// Solver fills a grid by repeatedly collapsing the open cell with the fewest
// candidates. It never backtracks: a contradiction is left for
// RepairContradictions, which assigns the error tile.
type Solver struct {
	grid     *Grid
	rng      *rand.Rand
	delay    time.Duration
	observer Observer
	steps    int
}

// NewSolver creates a solver over grid. rng breaks ties between cells of equal entropy.
func NewSolver(grid *Grid, rng *rand.Rand, opts ...Option) *Solver {
	s := &Solver{grid: grid, rng: rng}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grid returns the grid being solved
func (s *Solver) Grid() *Grid {
	return s.grid
}

// MinEntropyCells returns the cells sharing the smallest TileSetSize among
// cells, leaving out empty ones.
func MinEntropyCells(cells []*Cell) []*Cell {
	if len(cells) == 0 {
		return nil
	}
	smallest := cells[0].TileSetSize()
	for _, c := range cells[1:] {
		if n := c.TileSetSize(); n < smallest {
			smallest = n
		}
	}

	var out []*Cell
	for _, c := range cells {
		if n := c.TileSetSize(); n != 0 && n == smallest {
			out = append(out, c)
		}
	}
	return out
}

// Step collapses one minimum-entropy cell and propagates the result.
// ok is false when no open cell with candidates is left.
func (s *Solver) Step() (step Step, ok bool, err error) {
	open := s.grid.OpenCells()
	if len(open) == 0 {
		return Step{}, false, nil
	}

	lowest := MinEntropyCells(open)
	if len(lowest) == 0 {
		return Step{}, false, nil
	}
	cell := lowest[s.rng.Intn(len(lowest))]
	entropy := cell.TileSetSize()

	chosen, err := s.grid.Collapse(cell.Row, cell.Column)
	if err != nil {
		return Step{}, false, err
	}
	if chosen != nil {
		if err := s.grid.ReducePossibilitiesFor(cell.Row, cell.Column, chosen); err != nil {
			return Step{}, false, fmt.Errorf("propagate from (%d, %d): %w", cell.Row, cell.Column, err)
		}
	}

	s.steps++
	step = Step{
		Index:   s.steps,
		Row:     cell.Row,
		Column:  cell.Column,
		Tile:    chosen,
		Entropy: entropy,
	}
	s.notify(step)
	return step, true, nil
}

// Run steps until no open cell with candidates remains and returns the number
// of steps taken. Cancellation is checked between steps and during the delay.
func (s *Solver) Run(ctx context.Context) (int, error) {
	taken := 0
	for {
		if err := ctx.Err(); err != nil {
			return taken, err
		}

		_, ok, err := s.Step()
		if err != nil {
			return taken, err
		}
		if !ok {
			return taken, nil
		}
		taken++

		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return taken, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// RepairContradictions collapses every open cell without candidates to the
// error tile. Neighbours are not reduced.
func (s *Solver) RepairContradictions() []Step {
	var repaired []Step
	for _, cell := range s.grid.Cells() {
		if !cell.IsContradiction() {
			continue
		}
		chosen := cell.Collapse(s.grid.rng)
		s.steps++
		step := Step{
			Index:  s.steps,
			Row:    cell.Row,
			Column: cell.Column,
			Tile:   chosen,
			Repair: true,
		}
		s.notify(step)
		repaired = append(repaired, step)
	}
	return repaired
}

// Solve runs the solver to completion and then repairs contradictions
func (s *Solver) Solve(ctx context.Context) (Result, error) {
	steps, err := s.Run(ctx)
	if err != nil {
		return Result{Steps: steps, Stats: s.grid.Stats()}, err
	}
	repaired := s.RepairContradictions()
	return Result{
		Steps:    steps,
		Repaired: len(repaired),
		Stats:    s.grid.Stats(),
	}, nil
}

func (s *Solver) notify(step Step) {
	if s.observer != nil {
		s.observer(step)
	}
}
