package wfc

import (
	"fmt"
	"image/color"
	"strings"
)

// CodeLength is the number of symbols in a sides code: one group per direction
const CodeLength = 4 * SideLength

// Spin is the sense of a rotation: left is counter-clockwise, right is clockwise
type Spin string

const (
	SpinLeft  Spin = "left"
	SpinRight Spin = "right"
)

// ParseSpin converts "left" or "right" to a Spin
func ParseSpin(s string) (Spin, error) {
	switch Spin(strings.ToLower(strings.TrimSpace(s))) {
	case SpinLeft:
		return SpinLeft, nil
	case SpinRight:
		return SpinRight, nil
	}
	return "", fmt.Errorf("%w: unknown spin %q, must be left or right", ErrInvalidArgument, s)
}

// ErrorTileSize is the native size of the error tile before it is fitted to a cell
var ErrorTileSize = Square(40)

// ErrorCode is the sides code of the error tile. It matches nothing.
var ErrorCode = strings.Repeat("!", CodeLength)

var errorTile = &Tile{
	Name:     "error",
	Content:  NewFill(color.RGBA{R: 255, G: 0, B: 255, A: 255}, ErrorTileSize),
	sides:    []rune(ErrorCode),
	sentinel: true,
}

// Tile pairs optional content with a 12-symbol sides code.
// Symbols [0:3) describe the north edge, [3:6) east, [6:9) south and [9:12) west,
// each read clockwise around the tile.
type Tile struct {
	Name    string
	Content Content

	sides    []rune
	sentinel bool
}

// NewTile creates a tile. The code must hold exactly CodeLength symbols.
func NewTile(name string, content Content, code string) (*Tile, error) {
	sides := []rune(code)
	if len(sides) != CodeLength {
		return nil, fmt.Errorf("%w: sides code %q has %d symbols, want %d", ErrInvalidArgument, code, len(sides), CodeLength)
	}
	return &Tile{Name: name, Content: content, sides: sides}, nil
}

// ErrorTile returns the placeholder shown in cells that ran out of candidates,
// fitted to size.
func ErrorTile(size Size) *Tile {
	t := &Tile{
		Name:     errorTile.Name,
		Content:  errorTile.Content,
		sides:    errorTile.sides,
		sentinel: true,
	}
	t.Resize(size)
	return t
}

// IsErrorTile reports whether t is the placeholder for an unsatisfiable cell
func (t *Tile) IsErrorTile() bool {
	return t != nil && t.sentinel
}

// Code returns the full sides code
func (t *Tile) Code() string {
	return string(t.sides)
}

// Side returns the 3-symbol group for direction d
func (t *Tile) Side(d Direction) (string, error) {
	start, n, err := d.CodeSlice()
	if err != nil {
		return "", err
	}
	return string(t.sides[start : start+n]), nil
}

// ContentSize returns the size of the tile's content, if it has any
func (t *Tile) ContentSize() (Size, bool) {
	if t.Content == nil {
		return Size{}, false
	}
	return t.Content.Size(), true
}

// Rotate returns a copy of t turned by rotations quarter turns in the given spin.
// The code is shifted cyclically by 3*rotations symbols so that, for a left
// spin, the new north edge is the old east edge.
func (t *Tile) Rotate(rotations int, spin Spin) (*Tile, error) {
	if rotations < 0 {
		return nil, fmt.Errorf("%w: negative rotation count %d", ErrInvalidArgument, rotations)
	}

	var shift, turns int
	switch spin {
	case SpinLeft:
		shift = rotations * SideLength
		turns = rotations % 4
	case SpinRight:
		shift = -rotations * SideLength
		turns = normalizeTurns(-rotations)
	default:
		return nil, fmt.Errorf("%w: unknown spin %q, must be left or right", ErrInvalidArgument, spin)
	}

	rotated := &Tile{
		Name:     t.Name,
		sides:    shiftSides(t.sides, shift),
		sentinel: t.sentinel,
	}
	if t.Content != nil {
		rotated.Content = t.Content.Rotate(turns)
	}
	return rotated, nil
}

// Resize fits the content to size. It returns false when the tile has no content.
func (t *Tile) Resize(size Size) bool {
	if t.Content == nil {
		return false
	}
	if t.Content.Size() != size {
		t.Content = t.Content.Resize(size)
	}
	return true
}

// Match reports whether t's side selfDir can touch other's side otherDir.
// Facing edges are read in opposite senses, so t's group must equal the
// reverse of other's group. There are no wildcard symbols.
func (t *Tile) Match(other *Tile, selfDir, otherDir Direction) (bool, error) {
	mine, err := t.Side(selfDir)
	if err != nil {
		return false, err
	}
	theirs, err := other.Side(otherDir)
	if err != nil {
		return false, err
	}
	return mine == reverse(theirs), nil
}

// Equal compares name and sides code. Content is opaque and not compared.
func (t *Tile) Equal(other *Tile) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Name == other.Name && t.sentinel == other.sentinel && t.Code() == other.Code()
}

func (t *Tile) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s[%s]", t.Name, t.Code())
}

func shiftSides(sides []rune, shift int) []rune {
	n := len(sides)
	shift = ((shift % n) + n) % n
	out := make([]rune, n)
	for i := range out {
		out[i] = sides[(i+shift)%n]
	}
	return out
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
