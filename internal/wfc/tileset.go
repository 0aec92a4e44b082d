package wfc

import (
	"fmt"
	"sort"
)

// TileSet is an ordered list of candidate tiles that share one content size.
type TileSet []*Tile

// Rotation is one rotation command of a base tile
type Rotation struct {
	Count int
	Spin  Spin
}

// BaseTile describes an authored tile before rotated variants are generated
type BaseTile struct {
	Name      string
	Code      string
	Rotations []Rotation
}

// ContentSize returns the first tile's content size.
// Members are expected to share one size; this is not checked.
func (ts TileSet) ContentSize() (Size, bool) {
	if len(ts) == 0 {
		return Size{}, false
	}
	return ts[0].ContentSize()
}

// ResizeAll resizes every tile. It returns false for an empty set or when any
// tile has no content.
func (ts TileSet) ResizeAll(size Size) bool {
	if len(ts) == 0 {
		return false
	}
	ok := true
	for _, t := range ts {
		if !t.Resize(size) {
			ok = false
		}
	}
	return ok
}

// FilteredBy returns the tiles whose selfDir side matches other's otherDir side,
// in their original order. The receiver is not modified.
func (ts TileSet) FilteredBy(other *Tile, selfDir, otherDir Direction) (TileSet, error) {
	if selfDir.IsInvalid() || otherDir.IsInvalid() {
		return nil, fmt.Errorf("%w: cannot filter on %s/%s", ErrInvalidArgument, selfDir, otherDir)
	}
	filtered := make(TileSet, 0, len(ts))
	for _, t := range ts {
		ok, err := t.Match(other, selfDir, otherDir)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// Clone returns an independent candidate list over the same tiles
func (ts TileSet) Clone() TileSet {
	if ts == nil {
		return nil
	}
	out := make(TileSet, len(ts))
	copy(out, ts)
	return out
}

// BuildTileSet expands base tiles into a TileSet. Each base tile contributes
// itself followed by one variant per rotation command. Every command is applied
// to the unrotated base, so {1 left, 2 left} yields 90 and 180 degree variants.
// contents maps base tile names to their content; missing names get none.
func BuildTileSet(bases []BaseTile, contents map[string]Content) (TileSet, error) {
	var ts TileSet
	for _, base := range bases {
		original, err := NewTile(base.Name, contents[base.Name], base.Code)
		if err != nil {
			return nil, fmt.Errorf("tile %q: %w", base.Name, err)
		}
		ts = append(ts, original)

		for _, r := range base.Rotations {
			rotated, err := original.Rotate(r.Count, r.Spin)
			if err != nil {
				return nil, fmt.Errorf("tile %q: %w", base.Name, err)
			}
			ts = append(ts, rotated)
		}
	}
	return ts, nil
}

// Library is the table of named tile sets a grid can be built from
type Library map[string]TileSet

// Names returns the tile set names in sorted order
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContentSize returns the native tile size of a tile set.
// found is false when the name is unknown.
func (l Library) ContentSize(name string) (size Size, ok, found bool) {
	ts, found := l[name]
	if !found {
		return Size{}, false, false
	}
	size, ok = ts.ContentSize()
	return size, ok, true
}

// Resize resizes every tile of a tile set.
// found is false when the name is unknown.
func (l Library) Resize(name string, size Size) (ok, found bool) {
	ts, found := l[name]
	if !found {
		return false, false
	}
	return ts.ResizeAll(size), true
}
