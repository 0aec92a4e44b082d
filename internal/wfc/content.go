package wfc

import (
	"fmt"
	"image/color"
)

// Size is a width/height pair in pixels
type Size struct {
	Width, Height int
}

// Square returns a Size with equal sides
func Square(n int) Size {
	return Size{Width: n, Height: n}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect is a pixel rectangle anchored at its top-left corner
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the pixel (x, y) lies inside r
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Content is the visual payload of a tile. The solver never looks inside it;
// it only needs to know its size and to produce resized or rotated copies.
// Implementations are values: Resize and Rotate return new content and leave
// the receiver unchanged.
type Content interface {
	Size() Size
	Resize(size Size) Content
	// Rotate turns the content counter-clockwise by quarterTurns * 90 degrees.
	Rotate(quarterTurns int) Content
}

// Fill is a solid colour block. It stands in for real artwork in headless
// runs and backs the error tile.
type Fill struct {
	Color         color.RGBA
	Width, Height int
}

// NewFill returns a Fill of the given colour and size
func NewFill(c color.RGBA, size Size) Fill {
	return Fill{Color: c, Width: size.Width, Height: size.Height}
}

func (f Fill) Size() Size {
	return Size{Width: f.Width, Height: f.Height}
}

func (f Fill) Resize(size Size) Content {
	return NewFill(f.Color, size)
}

func (f Fill) Rotate(quarterTurns int) Content {
	if normalizeTurns(quarterTurns)%2 == 1 {
		return Fill{Color: f.Color, Width: f.Height, Height: f.Width}
	}
	return f
}

func normalizeTurns(n int) int {
	return ((n % 4) + 4) % 4
}
