package wfc

import (
	"errors"
	"image/color"
	"testing"
)

func mustTile(t *testing.T, name, code string) *Tile {
	t.Helper()
	tile, err := NewTile(name, NewFill(color.RGBA{A: 255}, Square(40)), code)
	if err != nil {
		t.Fatalf("NewTile(%q) error: %v", code, err)
	}
	return tile
}

func TestNewTileCodeLength(t *testing.T) {
	if _, err := NewTile("short", nil, "12345"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewTile(short code) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewTile("long", nil, "1234567890123"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewTile(long code) error = %v, want ErrInvalidArgument", err)
	}

	// symbols are runes, not bytes
	tile, err := NewTile("runes", nil, "ααβββγγγδδδα")
	if err != nil {
		t.Fatalf("NewTile(runes) error: %v", err)
	}
	if got, _ := tile.Side(East); got != "ββγ" {
		t.Errorf("Side(East) = %q, want %q", got, "ββγ")
	}
}

func TestTileSide(t *testing.T) {
	plus := mustTile(t, "plus", "+++123456789")
	if got, _ := plus.Side(North); got != "+++" {
		t.Errorf("Side(North) = %q, want %q", got, "+++")
	}

	mixed := mustTile(t, "mixed", "123abc456def")
	tests := []struct {
		d    Direction
		want string
	}{
		{North, "123"},
		{East, "abc"},
		{South, "456"},
		{West, "def"},
	}
	for _, tc := range tests {
		got, err := mixed.Side(tc.d)
		if err != nil {
			t.Fatalf("Side(%s) error: %v", tc.d, err)
		}
		if got != tc.want {
			t.Errorf("Side(%s) = %q, want %q", tc.d, got, tc.want)
		}
	}

	if _, err := mixed.Side(Invalid); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Side(Invalid) error = %v, want ErrInvalidArgument", err)
	}
}

func TestTileRotate(t *testing.T) {
	base := mustTile(t, "base", "111222333444")
	tests := []struct {
		rotations int
		spin      Spin
		want      string
	}{
		{0, SpinLeft, "111222333444"},
		{1, SpinLeft, "222333444111"},
		{2, SpinLeft, "333444111222"},
		{3, SpinLeft, "444111222333"},
		{4, SpinLeft, "111222333444"},
		{1, SpinRight, "444111222333"},
		{2, SpinRight, "333444111222"},
		{5, SpinRight, "444111222333"},
	}

	for _, tc := range tests {
		rotated, err := base.Rotate(tc.rotations, tc.spin)
		if err != nil {
			t.Fatalf("Rotate(%d, %s) error: %v", tc.rotations, tc.spin, err)
		}
		if got := rotated.Code(); got != tc.want {
			t.Errorf("Rotate(%d, %s).Code() = %q, want %q", tc.rotations, tc.spin, got, tc.want)
		}
		if got := len([]rune(rotated.Code())); got != CodeLength {
			t.Errorf("Rotate(%d, %s) code length = %d, want %d", tc.rotations, tc.spin, got, CodeLength)
		}
	}

	if base.Code() != "111222333444" {
		t.Errorf("Rotate modified the receiver: %q", base.Code())
	}
}

func TestTileRotateLeftMovesEastToNorth(t *testing.T) {
	tile := mustTile(t, "t", "nnneeessswww")
	rotated, err := tile.Rotate(1, SpinLeft)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := rotated.Side(North); got != "eee" {
		t.Errorf("after left turn Side(North) = %q, want %q", got, "eee")
	}
}

func TestTileRotateRoundTrip(t *testing.T) {
	tile, err := NewTile("wide", NewFill(color.RGBA{R: 10, A: 255}, Size{Width: 40, Height: 20}), "abcdefghijkl")
	if err != nil {
		t.Fatal(err)
	}

	for r := 0; r < 9; r++ {
		left, err := tile.Rotate(r, SpinLeft)
		if err != nil {
			t.Fatal(err)
		}
		back, err := left.Rotate(r, SpinRight)
		if err != nil {
			t.Fatal(err)
		}
		if back.Code() != tile.Code() {
			t.Errorf("left %d then right %d = %q, want %q", r, r, back.Code(), tile.Code())
		}
		if back.Content.Size() != tile.Content.Size() {
			t.Errorf("left %d then right %d size = %v, want %v", r, r, back.Content.Size(), tile.Content.Size())
		}
	}
}

func TestTileRotateContent(t *testing.T) {
	tile, err := NewTile("wide", NewFill(color.RGBA{A: 255}, Size{Width: 40, Height: 20}), "abcdefghijkl")
	if err != nil {
		t.Fatal(err)
	}

	quarter, _ := tile.Rotate(1, SpinLeft)
	if got := quarter.Content.Size(); got != (Size{Width: 20, Height: 40}) {
		t.Errorf("quarter turn size = %v, want 20x40", got)
	}
	half, _ := tile.Rotate(2, SpinRight)
	if got := half.Content.Size(); got != (Size{Width: 40, Height: 20}) {
		t.Errorf("half turn size = %v, want 40x20", got)
	}

	bare, _ := NewTile("bare", nil, "abcdefghijkl")
	rotated, err := bare.Rotate(1, SpinLeft)
	if err != nil {
		t.Fatal(err)
	}
	if rotated.Content != nil {
		t.Error("rotating a tile without content produced content")
	}
}

func TestTileRotateInvalid(t *testing.T) {
	tile := mustTile(t, "t", "abcdefghijkl")

	if _, err := tile.Rotate(1, Spin("up")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Rotate(spin=up) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := tile.Rotate(-1, SpinLeft); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Rotate(-1) error = %v, want ErrInvalidArgument", err)
	}
}

func TestParseSpin(t *testing.T) {
	if got, err := ParseSpin("Left"); err != nil || got != SpinLeft {
		t.Errorf("ParseSpin(Left) = %q, %v", got, err)
	}
	if got, err := ParseSpin("right"); err != nil || got != SpinRight {
		t.Errorf("ParseSpin(right) = %q, %v", got, err)
	}
	if _, err := ParseSpin("around"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ParseSpin(around) error = %v, want ErrInvalidArgument", err)
	}
}

func TestTileMatch(t *testing.T) {
	tests := []struct {
		name        string
		self, other string
		selfDir     Direction
		otherDir    Direction
		want        bool
	}{
		{"north to south", "111aaaaaaaaa", "aaaaaa111aaa", North, South, true},
		{"north to south mismatch", "111aaaaaaaaa", "aaaaaaaaa111", North, South, false},
		{"north to south other side", "111aaaaaaaaa", "111111aaa111", North, South, false},
		{"south to north", "aaaaaa111aaa", "aaa111111111", South, North, false},
		{"east to west", "aaa111aaaaaa", "111111111aaa", East, West, false},
		{"west to east", "aaaaaaaaa111", "111aaa111111", West, East, false},
		{"reversed edge", "abcxxxxxxxxx", "xxxxxxcbaxxx", North, South, true},
		{"unreversed edge", "abcxxxxxxxxx", "xxxxxxabcxxx", North, South, false},
		{"filler symbols", "+++!!!!!!!!!", "!!!!!!+++!!!", North, South, true},
		{"filler mismatch", "+++!!!!!!!!!", "!!!!!!!!!!!!", North, South, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			self := mustTile(t, "self", tc.self)
			other := mustTile(t, "other", tc.other)
			got, err := self.Match(other, tc.selfDir, tc.otherDir)
			if err != nil {
				t.Fatalf("Match error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Match(%s, %s) = %v, want %v", tc.selfDir, tc.otherDir, got, tc.want)
			}
		})
	}
}

func TestTileMatchInvalidDirection(t *testing.T) {
	a := mustTile(t, "a", "abcdefghijkl")
	b := mustTile(t, "b", "abcdefghijkl")

	if _, err := a.Match(b, Invalid, South); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Match(Invalid, South) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.Match(b, North, Invalid); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Match(North, Invalid) error = %v, want ErrInvalidArgument", err)
	}
}

func TestTileMatchSymmetry(t *testing.T) {
	codes := []string{
		"111aaaaaaaaa",
		"aaaaaaaaa111",
		"aaaaaa111aaa",
		"abcxxxxxxxxx",
		"xxxxxxcbaxxx",
		"cbaabccbaabc",
		"000000000000",
	}
	var tiles []*Tile
	for _, c := range codes {
		tiles = append(tiles, mustTile(t, c, c))
	}

	for _, a := range tiles {
		for _, b := range tiles {
			for _, d := range AllDirections() {
				ab, err := a.Match(b, d, d.Opposite())
				if err != nil {
					t.Fatal(err)
				}
				ba, err := b.Match(a, d.Opposite(), d)
				if err != nil {
					t.Fatal(err)
				}
				if ab != ba {
					t.Errorf("%s.Match(%s, %s) = %v but reverse = %v", a.Code(), b.Code(), d, ab, ba)
				}
			}
		}
	}
}

func TestTileResize(t *testing.T) {
	tile := mustTile(t, "t", "abcdefghijkl")
	if !tile.Resize(Square(40)) {
		t.Error("Resize to current size = false, want true")
	}
	if !tile.Resize(Size{Width: 16, Height: 24}) {
		t.Error("Resize = false, want true")
	}
	if got := tile.Content.Size(); got != (Size{Width: 16, Height: 24}) {
		t.Errorf("size after Resize = %v, want 16x24", got)
	}

	bare, _ := NewTile("bare", nil, "abcdefghijkl")
	if bare.Resize(Square(10)) {
		t.Error("Resize without content = true, want false")
	}
}

func TestErrorTile(t *testing.T) {
	tile := ErrorTile(Size{Width: 30, Height: 20})
	if !tile.IsErrorTile() {
		t.Error("ErrorTile().IsErrorTile() = false")
	}
	if got, _ := tile.ContentSize(); got != (Size{Width: 30, Height: 20}) {
		t.Errorf("ErrorTile size = %v, want 30x20", got)
	}
	if got := len([]rune(tile.Code())); got != CodeLength {
		t.Errorf("ErrorTile code length = %d, want %d", got, CodeLength)
	}

	// the shared sentinel keeps its native size
	if got := errorTile.Content.Size(); got != ErrorTileSize {
		t.Errorf("sentinel size = %v, want %v", got, ErrorTileSize)
	}

	regular := mustTile(t, "t", "!!!!!!!!!!!!")
	if regular.IsErrorTile() {
		t.Error("regular tile reported as error tile")
	}
}

func TestTileEqual(t *testing.T) {
	a := mustTile(t, "a", "abcdefghijkl")
	b := mustTile(t, "a", "abcdefghijkl")
	c := mustTile(t, "a", "abcdefghijkx")

	if !a.Equal(b) {
		t.Error("identical tiles not equal")
	}
	if a.Equal(c) {
		t.Error("different codes reported equal")
	}
	if a.Equal(nil) {
		t.Error("tile equal to nil")
	}
}
