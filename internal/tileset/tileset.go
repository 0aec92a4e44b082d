// Package tileset reads tile descriptions from YAML and turns them into a
// wfc.Library of solid-colour tiles.
package tileset

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
	"gopkg.in/yaml.v3"
)

// ErrFormat is returned for a tile description that cannot be formatted.
// It wraps wfc.ErrInvalidArgument.
var ErrFormat = fmt.Errorf("%w: tile set format", wfc.ErrInvalidArgument)

// DefaultTileSize is used when a tile set does not declare tile_size.
var DefaultTileSize = wfc.Square(40)

// TileDescription is one formatted base tile
type TileDescription struct {
	Name      string
	Code      string
	Rotations []wfc.Rotation
	Color     color.RGBA
}

// SetDescription is one formatted tile set, tiles in document order
type SetDescription struct {
	Name     string
	TileSize wfc.Size
	Tiles    []TileDescription
}

// Description holds every tile set read from one file or directory
type Description struct {
	Sets []SetDescription
}

// Set returns the tile set with the given name
func (d *Description) Set(name string) (SetDescription, bool) {
	for _, s := range d.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return SetDescription{}, false
}

// Names lists the tile set names in the order they were read
func (d *Description) Names() []string {
	names := make([]string, len(d.Sets))
	for i, s := range d.Sets {
		names[i] = s.Name
	}
	return names
}

// Load reads tile descriptions from path. A file holds a tile_sets mapping of
// several sets. A directory holds one set per .yaml/.yml file, named after the file.
func Load(path string) (*Description, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile descriptions: %w", err)
	}
	if info.IsDir() {
		return loadDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile descriptions: %w", err)
	}
	return Parse(data)
}

func loadDir(dir string) (*Description, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile set directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	desc := &Description{}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read tile set %s: %w", name, err)
		}
		setName := strings.TrimSuffix(name, filepath.Ext(name))
		set, err := ParseSet(setName, data)
		if err != nil {
			return nil, err
		}
		desc.Sets = append(desc.Sets, set)
	}
	return desc, nil
}

// Parse reads a document of the form
//
//	tile_sets:
//	  roads:
//	    tile_size: 40
//	    tiles:
//	      corner: {directions: "111 000 000 000", rotations: 3}
func Parse(data []byte) (*Description, error) {
	root, err := documentRoot(data)
	if err != nil {
		return nil, err
	}

	sets := mappingValue(root, "tile_sets")
	if sets == nil {
		return nil, fmt.Errorf("%w: missing tile_sets", ErrFormat)
	}
	if sets.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: tile_sets must be a mapping", ErrFormat)
	}

	desc := &Description{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(sets.Content); i += 2 {
		name := sets.Content[i].Value
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate tile set %q", ErrFormat, name)
		}
		seen[name] = true

		set, err := formatSet(name, sets.Content[i+1])
		if err != nil {
			return nil, err
		}
		desc.Sets = append(desc.Sets, set)
	}
	return desc, nil
}

// ParseSet reads a single tile set document (tile_size and tiles keys)
func ParseSet(name string, data []byte) (SetDescription, error) {
	root, err := documentRoot(data)
	if err != nil {
		return SetDescription{}, err
	}
	return formatSet(name, root)
}

func documentRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tile description YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrFormat)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document must be a mapping", ErrFormat)
	}
	return root, nil
}

// mappingValue returns the value node stored under key, or nil
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func formatSet(name string, node *yaml.Node) (SetDescription, error) {
	if node.Kind != yaml.MappingNode {
		return SetDescription{}, fmt.Errorf("%w: tile set %q must be a mapping", ErrFormat, name)
	}

	set := SetDescription{Name: name, TileSize: DefaultTileSize}
	if sizeNode := mappingValue(node, "tile_size"); sizeNode != nil {
		size, err := formatSize(sizeNode)
		if err != nil {
			return SetDescription{}, fmt.Errorf("tile set %q: %w", name, err)
		}
		set.TileSize = size
	}

	tiles := mappingValue(node, "tiles")
	if tiles == nil || tiles.Kind != yaml.MappingNode {
		return SetDescription{}, fmt.Errorf("%w: tile set %q has no tiles mapping", ErrFormat, name)
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(tiles.Content); i += 2 {
		tileName := tiles.Content[i].Value
		if seen[tileName] {
			return SetDescription{}, fmt.Errorf("%w: tile set %q: duplicate tile %q", ErrFormat, name, tileName)
		}
		seen[tileName] = true

		tile, err := formatTile(tileName, tiles.Content[i+1])
		if err != nil {
			return SetDescription{}, fmt.Errorf("tile set %q: %w", name, err)
		}
		set.Tiles = append(set.Tiles, tile)
	}
	return set, nil
}

func formatTile(name string, node *yaml.Node) (TileDescription, error) {
	if node.Kind != yaml.MappingNode {
		return TileDescription{}, fmt.Errorf("%w: tile %q must be a mapping", ErrFormat, name)
	}

	directions := mappingValue(node, "directions")
	if directions == nil {
		return TileDescription{}, fmt.Errorf("%w: tile %q: directions are missing", ErrFormat, name)
	}
	code, err := FormatDirections(directions, wfc.CodeLength)
	if err != nil {
		return TileDescription{}, fmt.Errorf("tile %q: %w", name, err)
	}

	rotations, err := FormatRotations(mappingValue(node, "rotations"))
	if err != nil {
		return TileDescription{}, fmt.Errorf("tile %q: %w", name, err)
	}

	c := defaultColor(code)
	if colorNode := mappingValue(node, "color"); colorNode != nil {
		c, err = parseColor(colorNode.Value)
		if err != nil {
			return TileDescription{}, fmt.Errorf("tile %q: %w", name, err)
		}
	}

	return TileDescription{
		Name:      name,
		Code:      code,
		Rotations: rotations,
		Color:     c,
	}, nil
}
