package wfc

import (
	"fmt"
	"math/rand"
)

// reduceMove points from a collapsed cell to a neighbour and names the
// neighbour's side that touches the collapsed cell.
type reduceMove struct {
	dRow, dColumn int
	side          Direction
}

// reduceMoves is the fixed propagation table used after every collapse
var reduceMoves = [4]reduceMove{
	{-1, 0, South}, // neighbour above
	{0, 1, West},   // neighbour to the right
	{1, 0, North},  // neighbour below
	{0, -1, East},  // neighbour to the left
}

// Grid owns the matrix of cells built from one tile set of a Library.
// It is shared by the solver and any interactive driver; both see every collapse.
type Grid struct {
	rows, columns int
	cells         [][]*Cell
	library       Library
	current       string
	cellSize      Size
	rng           *rand.Rand
}

// Placement is one cell's contribution to an exported image
type Placement struct {
	Row, Column int
	X, Y        int
	Content     Content
	Tile        *Tile // nil when the background was used
}

// Stats summarises the state of a grid
type Stats struct {
	Cells          int
	Open           int // open cells that still have candidates
	Collapsed      int
	Contradictions int // open cells with no candidates
	ErrorTiles     int // collapsed cells holding the error tile
}

// NewGrid creates an empty grid. Call Rebuild to populate it with cells.
// rng drives every collapse made through the grid.
func NewGrid(rows, columns int, library Library, rng *rand.Rand) (*Grid, error) {
	if rows < 0 || columns < 0 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrInvalidArgument, rows, columns)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidArgument)
	}
	return &Grid{
		rows:    rows,
		columns: columns,
		library: library,
		rng:     rng,
	}, nil
}

func (g *Grid) Rows() int           { return g.rows }
func (g *Grid) Columns() int        { return g.columns }
func (g *Grid) CellSize() Size      { return g.cellSize }
func (g *Grid) TileSetName() string { return g.current }
func (g *Grid) Library() Library    { return g.library }

// Rebuild discards all cells and creates a fresh matrix seeded with the named
// tile set. On error the previous cells are left untouched.
func (g *Grid) Rebuild(name string) error {
	ts, ok := g.library[name]
	if !ok {
		return fmt.Errorf("%w: tile set %q", ErrNotFound, name)
	}
	if len(ts) == 0 {
		return fmt.Errorf("%w: tile set %q has no tiles", ErrInvalidState, name)
	}
	size, ok := ts.ContentSize()
	if !ok {
		return fmt.Errorf("%w: tile set %q has no content to size cells from", ErrInvalidState, name)
	}

	cells := make([][]*Cell, g.rows)
	for row := 0; row < g.rows; row++ {
		cells[row] = make([]*Cell, g.columns)
		for column := 0; column < g.columns; column++ {
			cells[row][column] = NewCell(row, column, size, ts)
		}
	}

	g.cells = cells
	g.current = name
	g.cellSize = size
	return nil
}

// InBounds reports whether (row, column) addresses a cell
func (g *Grid) InBounds(row, column int) bool {
	return row >= 0 && row < len(g.cells) && column >= 0 && column < len(g.cells[row])
}

// Cell returns the cell at (row, column), or nil when out of bounds
func (g *Grid) Cell(row, column int) *Cell {
	if !g.InBounds(row, column) {
		return nil
	}
	return g.cells[row][column]
}

// Cells returns every cell in row-major order
func (g *Grid) Cells() []*Cell {
	out := make([]*Cell, 0, g.rows*g.columns)
	for _, row := range g.cells {
		out = append(out, row...)
	}
	return out
}

// OpenCells returns the cells that are neither collapsed nor empty
func (g *Grid) OpenCells() []*Cell {
	var out []*Cell
	for _, row := range g.cells {
		for _, c := range row {
			if c.TileSetSize() > 0 {
				out = append(out, c)
			}
		}
	}
	return out
}

// Collapse collapses the cell at (row, column). It returns nil without error
// when the cell was already collapsed.
func (g *Grid) Collapse(row, column int) (*Tile, error) {
	c := g.Cell(row, column)
	if c == nil {
		return nil, fmt.Errorf("%w: cell (%d, %d) is outside the grid", ErrInvalidArgument, row, column)
	}
	return c.Collapse(g.rng), nil
}

// ReducePossibilitiesFor filters the four neighbours of (row, column) against
// chosen. Each neighbour keeps the candidates whose side facing the collapsed
// cell matches chosen's side facing the neighbour.
func (g *Grid) ReducePossibilitiesFor(row, column int, chosen *Tile) error {
	if chosen == nil {
		return fmt.Errorf("%w: nil tile", ErrInvalidArgument)
	}
	for _, m := range reduceMoves {
		neighbour := g.Cell(row+m.dRow, column+m.dColumn)
		if neighbour == nil {
			continue
		}
		if _, _, err := neighbour.ReducePossibilities(chosen, m.side, m.side.Opposite()); err != nil {
			return err
		}
	}
	return nil
}

// CollapseAndPropagate collapses a cell and, if a tile was chosen, reduces its
// neighbours. This is what an interactive click does.
func (g *Grid) CollapseAndPropagate(row, column int) (*Tile, error) {
	chosen, err := g.Collapse(row, column)
	if err != nil || chosen == nil {
		return chosen, err
	}
	return chosen, g.ReducePossibilitiesFor(row, column, chosen)
}

// CellAt converts pixel coordinates to (row, column).
// It returns (-1, -1) when the pixel lies outside the grid.
func (g *Grid) CellAt(x, y int) (row, column int) {
	w, h := g.cellSize.Width, g.cellSize.Height
	if w <= 0 || h <= 0 {
		return -1, -1
	}
	if x < 0 || y < 0 || x >= g.columns*w || y >= g.rows*h {
		return -1, -1
	}
	return y / h, x / w
}

// PixelSize returns the size of the whole grid in pixels
func (g *Grid) PixelSize() Size {
	return Size{Width: g.columns * g.cellSize.Width, Height: g.rows * g.cellSize.Height}
}

// Export lists, for every cell, the content to draw at its pixel offset:
// the chosen tile's content when collapsed, otherwise background(cell size).
func (g *Grid) Export(background func(Size) Content) []Placement {
	out := make([]Placement, 0, g.rows*g.columns)
	for _, c := range g.Cells() {
		b := c.Bounds()
		p := Placement{Row: c.Row, Column: c.Column, X: b.X, Y: b.Y}
		if chosen := c.Chosen(); chosen != nil && chosen.Content != nil {
			p.Tile = chosen
			p.Content = chosen.Content
		} else if background != nil {
			p.Content = background(c.Size)
		}
		out = append(out, p)
	}
	return out
}

// Codes returns the sides code of every collapsed cell, "" for open cells
func (g *Grid) Codes() [][]string {
	out := make([][]string, len(g.cells))
	for r, row := range g.cells {
		out[r] = make([]string, len(row))
		for c, cell := range row {
			if chosen := cell.Chosen(); chosen != nil {
				out[r][c] = chosen.Code()
			}
		}
	}
	return out
}

// Stats counts cells by state
func (g *Grid) Stats() Stats {
	var s Stats
	for _, c := range g.Cells() {
		s.Cells++
		switch {
		case c.IsCollapsed():
			s.Collapsed++
			if c.Chosen().IsErrorTile() {
				s.ErrorTiles++
			}
		case c.IsContradiction():
			s.Contradictions++
		default:
			s.Open++
		}
	}
	return s
}

// Resize changes the rendering size of every cell and of the active tile set.
// It reports whether the tile set could be resized.
func (g *Grid) Resize(size Size) bool {
	g.cellSize = size
	for _, c := range g.Cells() {
		c.Resize(size)
	}
	ok, _ := g.library.Resize(g.current, size)
	return ok
}
