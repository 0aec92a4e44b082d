package tileset

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// FormatDirections turns a directions value into a k symbol sides code.
//
//	5                      -> "555555555555"
//	"a"                    -> "aaaaaaaaaaaa"
//	"111 222 333 444"      -> "111222333444"
//	{north: 1, east: a, south: "1a1", west: 0}
//	                       -> "111aaa1a1000"
//
// Values of the mapping form are formatted to wfc.SideLength symbols each.
func FormatDirections(node *yaml.Node, k int) (string, error) {
	if node == nil {
		return "", fmt.Errorf("%w: directions are missing", ErrFormat)
	}

	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!int":
			return formatDirectionsInt(node.Value, k)
		case "!!str":
			return formatDirectionsString(node.Value, k)
		}
	case yaml.MappingNode:
		if k == wfc.CodeLength {
			return formatDirectionsMap(node)
		}
	}
	return "", fmt.Errorf("%w: unknown directions format at line %d", ErrFormat, node.Line)
}

func formatDirectionsInt(value string, k int) (string, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 9 {
		return "", fmt.Errorf("%w: integer directions must be a digit 0-9, got %s", ErrFormat, value)
	}
	return strings.Repeat(strconv.Itoa(n), k), nil
}

func formatDirectionsString(value string, k int) (string, error) {
	value = strings.ReplaceAll(value, " ", "")
	switch utf8.RuneCountInString(value) {
	case 1:
		return strings.Repeat(value, k), nil
	case k:
		return value, nil
	}
	return "", fmt.Errorf("%w: directions string %q must be 1 or %d symbols long", ErrFormat, value, k)
}

func formatDirectionsMap(node *yaml.Node) (string, error) {
	if len(node.Content) != 2*len(wfc.AllDirections()) {
		return "", fmt.Errorf("%w: directions mapping must have exactly north, east, south and west", ErrFormat)
	}

	var b strings.Builder
	for _, d := range wfc.AllDirections() {
		value := mappingValue(node, d.String())
		if value == nil {
			return "", fmt.Errorf("%w: directions mapping is missing %s", ErrFormat, d)
		}
		side, err := FormatDirections(value, wfc.SideLength)
		if err != nil {
			return "", fmt.Errorf("%s: %w", d, err)
		}
		b.WriteString(side)
	}
	return b.String(), nil
}

// FormatRotations turns a rotations value into rotation commands.
// A missing value means none, an integer N means 1..N left turns, and a list
// of {count, spin} mappings is taken as written (spin defaults to left).
func FormatRotations(node *yaml.Node) ([]wfc.Rotation, error) {
	if node == nil || node.Tag == "!!null" {
		return nil, nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!int" {
			break
		}
		n, err := strconv.Atoi(node.Value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: rotations must be a non-negative integer, got %s", ErrFormat, node.Value)
		}
		rotations := make([]wfc.Rotation, 0, n)
		for i := 1; i <= n; i++ {
			rotations = append(rotations, wfc.Rotation{Count: i, Spin: wfc.SpinLeft})
		}
		return rotations, nil

	case yaml.SequenceNode:
		var items []struct {
			Count *int   `yaml:"count"`
			Spin  string `yaml:"spin"`
		}
		if err := node.Decode(&items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		rotations := make([]wfc.Rotation, 0, len(items))
		for i, item := range items {
			if item.Count == nil || *item.Count < 0 {
				return nil, fmt.Errorf("%w: rotation %d needs a non-negative count", ErrFormat, i)
			}
			spin := wfc.SpinLeft
			if item.Spin != "" {
				var err error
				if spin, err = wfc.ParseSpin(item.Spin); err != nil {
					return nil, fmt.Errorf("rotation %d: %w", i, err)
				}
			}
			rotations = append(rotations, wfc.Rotation{Count: *item.Count, Spin: spin})
		}
		return rotations, nil
	}

	return nil, fmt.Errorf("%w: unknown rotations format at line %d", ErrFormat, node.Line)
}

// formatSize accepts an integer edge or a [width, height] pair
func formatSize(node *yaml.Node) (wfc.Size, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err == nil && n > 0 {
			return wfc.Square(n), nil
		}
	case yaml.SequenceNode:
		var pair []int
		if err := node.Decode(&pair); err == nil && len(pair) == 2 && pair[0] > 0 && pair[1] > 0 {
			return wfc.Size{Width: pair[0], Height: pair[1]}, nil
		}
	}
	return wfc.Size{}, fmt.Errorf("%w: tile_size must be a positive integer or [width, height]", ErrFormat)
}

// parseColor accepts #rrggbb or #rrggbbaa
func parseColor(s string) (color.RGBA, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || (len(raw) != 3 && len(raw) != 4) {
		return color.RGBA{}, fmt.Errorf("%w: invalid color %q", ErrFormat, s)
	}
	c := color.RGBA{R: raw[0], G: raw[1], B: raw[2], A: 255}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}

// defaultColor derives a stable colour from a sides code so tiles with
// different edges are told apart without any configuration.
func defaultColor(code string) color.RGBA {
	sum := blake2b.Sum256([]byte(code))
	return color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
}
