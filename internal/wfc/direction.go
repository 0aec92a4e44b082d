package wfc

import (
	"fmt"
	"strings"
)

// Direction represents a cardinal direction in the grid.
// The order North, East, South, West is also the order of the
// side groups inside a tile's sides code.
type Direction int

const (
	Invalid Direction = iota - 1
	North
	East
	South
	West
)

// SideLength is the number of symbols describing one side of a tile
const SideLength = 3

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// IsInvalid reports whether d is not one of the four cardinal directions
func (d Direction) IsInvalid() bool {
	return d < North || d > West
}

// Opposite returns the opposite direction. Invalid maps to Invalid.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	default:
		return Invalid
	}
}

// CodeSlice returns the start index and length of d's group in a sides code.
func (d Direction) CodeSlice() (start, length int, err error) {
	if d.IsInvalid() {
		return 0, 0, fmt.Errorf("%w: direction %d has no code slice", ErrInvalidArgument, int(d))
	}
	return int(d) * SideLength, SideLength, nil
}

// AllDirections returns all four cardinal directions in code order
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// ParseDirection converts a direction name ("north", "East", ...) to a Direction
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "north":
		return North, nil
	case "east":
		return East, nil
	case "south":
		return South, nil
	case "west":
		return West, nil
	}
	return Invalid, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, name)
}
