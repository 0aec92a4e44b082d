package wfc

import (
	"fmt"
	"math/rand"
)

// Collapsed is the TileSetSize reported by a collapsed cell
const Collapsed = -1

// Cell represents a single position in the grid during solving
type Cell struct {
	Row, Column int
	Size        Size // rendering size in pixels

	candidates TileSet
	collapsed  bool
	chosen     *Tile
}

// NewCell creates an open cell holding its own copy of candidates
func NewCell(row, column int, size Size, candidates TileSet) *Cell {
	return &Cell{
		Row:        row,
		Column:     column,
		Size:       size,
		candidates: candidates.Clone(),
	}
}

// IsCollapsed reports whether a tile has been committed to this cell
func (c *Cell) IsCollapsed() bool {
	return c.collapsed
}

// Chosen returns the committed tile, or nil while the cell is open
func (c *Cell) Chosen() *Tile {
	return c.chosen
}

// Candidates returns a copy of the remaining candidates
func (c *Cell) Candidates() TileSet {
	return c.candidates.Clone()
}

// TileSetSize returns the number of remaining candidates, or Collapsed (-1)
// once the cell is collapsed. An open cell may report 0: it is a contradiction
// waiting for repair.
func (c *Cell) TileSetSize() int {
	if c.collapsed {
		return Collapsed
	}
	return len(c.candidates)
}

// IsContradiction reports whether the cell is open with nothing left to choose
func (c *Cell) IsContradiction() bool {
	return !c.collapsed && len(c.candidates) == 0
}

// Collapse commits the cell to one uniformly chosen candidate, or to the
// error tile if none remain. It returns nil if the cell was already collapsed.
func (c *Cell) Collapse(rng *rand.Rand) *Tile {
	if c.collapsed {
		return nil
	}
	c.collapsed = true

	if len(c.candidates) == 0 {
		c.chosen = ErrorTile(c.Size)
	} else {
		c.chosen = c.candidates[rng.Intn(len(c.candidates))]
	}
	return c.chosen
}

// ReducePossibilities keeps only candidates whose selfDir side matches other's
// otherDir side and returns the new count. reduced is false when the cell is
// already collapsed, in which case nothing changes.
func (c *Cell) ReducePossibilities(other *Tile, selfDir, otherDir Direction) (count int, reduced bool, err error) {
	if c.collapsed {
		return Collapsed, false, nil
	}
	filtered, err := c.candidates.FilteredBy(other, selfDir, otherDir)
	if err != nil {
		return len(c.candidates), false, err
	}
	c.candidates = filtered
	return len(c.candidates), true, nil
}

// Bounds returns the cell's pixel rectangle
func (c *Cell) Bounds() Rect {
	return Rect{
		X:      c.Column * c.Size.Width,
		Y:      c.Row * c.Size.Height,
		Width:  c.Size.Width,
		Height: c.Size.Height,
	}
}

// Resize changes the rendering size and fits the candidates and chosen tile to it.
// It reports whether every candidate could be resized.
func (c *Cell) Resize(size Size) bool {
	c.Size = size
	if c.chosen != nil {
		c.chosen.Resize(size)
	}
	return c.candidates.ResizeAll(size)
}

func (c *Cell) String() string {
	return fmt.Sprintf("<row=%d,column=%d,tile_set_size=%d>", c.Row, c.Column, c.TileSetSize())
}
