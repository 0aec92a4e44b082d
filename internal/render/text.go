// Package render draws grids of sides codes as text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
)

// Cell glyphs
const (
	GlyphTile   = '#'
	GlyphError  = '!'
	GlyphOpen   = '.'
	GlyphCorner = '+'
)

// Text writes codes, one sides code per cell and "" for open cells, as
// blocks of 3x3 characters:
//
//	+N+
//	W#E
//	+S+
//
// where each edge shows the middle symbol of that side.
func Text(w io.Writer, codes [][]string) error {
	bw := bufio.NewWriter(w)
	for r, row := range codes {
		lines := [3]strings.Builder{}
		for c, code := range row {
			block, err := cellBlock(code)
			if err != nil {
				return fmt.Errorf("cell (%d, %d): %w", r, c, err)
			}
			for i := range lines {
				lines[i].WriteString(block[i])
			}
		}
		for i := range lines {
			bw.WriteString(lines[i].String())
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// String is Text into a string
func String(codes [][]string) (string, error) {
	var sb strings.Builder
	err := Text(&sb, codes)
	return sb.String(), err
}

// Legend explains the glyphs used by Text
func Legend() string {
	return fmt.Sprintf("Legend:\n  %c tile  %c error tile  %c open cell\n  edges show the middle symbol of each side\n",
		GlyphTile, GlyphError, GlyphOpen)
}

func cellBlock(code string) ([3]string, error) {
	if code == "" {
		return [3]string{"   ", " " + string(GlyphOpen) + " ", "   "}, nil
	}

	sides := []rune(code)
	if len(sides) != wfc.CodeLength {
		return [3]string{}, fmt.Errorf("%w: sides code %q has %d symbols, want %d",
			wfc.ErrInvalidArgument, code, len(sides), wfc.CodeLength)
	}

	center := GlyphTile
	if code == wfc.ErrorCode {
		center = GlyphError
	}

	mid := func(d wfc.Direction) rune {
		start, length, _ := d.CodeSlice()
		return sides[start+length/2]
	}
	return [3]string{
		string([]rune{GlyphCorner, mid(wfc.North), GlyphCorner}),
		string([]rune{mid(wfc.West), center, mid(wfc.East)}),
		string([]rune{GlyphCorner, mid(wfc.South), GlyphCorner}),
	}, nil
}
