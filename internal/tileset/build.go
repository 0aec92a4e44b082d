package tileset

import (
	"encoding/hex"
	"fmt"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
	"golang.org/x/crypto/blake2b"
)

// BuildSet expands a set description into tiles, rotations included.
// Every tile gets a solid Fill of the set's tile size.
func BuildSet(set SetDescription) (wfc.TileSet, error) {
	bases := make([]wfc.BaseTile, 0, len(set.Tiles))
	contents := make(map[string]wfc.Content, len(set.Tiles))
	for _, t := range set.Tiles {
		bases = append(bases, wfc.BaseTile{
			Name:      t.Name,
			Code:      t.Code,
			Rotations: t.Rotations,
		})
		contents[t.Name] = wfc.NewFill(t.Color, set.TileSize)
	}

	ts, err := wfc.BuildTileSet(bases, contents)
	if err != nil {
		return nil, fmt.Errorf("tile set %q: %w", set.Name, err)
	}
	return ts, nil
}

// Build expands every set of the description into a library
func Build(desc *Description) (wfc.Library, error) {
	lib := make(wfc.Library, len(desc.Sets))
	for _, set := range desc.Sets {
		ts, err := BuildSet(set)
		if err != nil {
			return nil, err
		}
		lib[set.Name] = ts
	}
	return lib, nil
}

// LoadLibrary reads path and builds the library in one go
func LoadLibrary(path string) (wfc.Library, error) {
	desc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(desc)
}

// Fingerprint is a hex BLAKE2b-256 digest over the names and codes of a tile
// set, in order. Archived runs store it so a run can be matched to the exact
// tile set it was solved with.
func Fingerprint(ts wfc.TileSet) string {
	h, _ := blake2b.New256(nil)
	for _, t := range ts {
		h.Write([]byte(t.Name))
		h.Write([]byte{0})
		h.Write([]byte(t.Code()))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
