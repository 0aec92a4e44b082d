// Package config loads the application configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/tilewfc/internal/database"
	"github.com/lawnchairsociety/tilewfc/internal/logger"
	"github.com/lawnchairsociety/tilewfc/internal/throttle"
	"github.com/lawnchairsociety/tilewfc/internal/wfc"
	"gopkg.in/yaml.v3"
)

// Config holds every section of the application config file.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Tiles     TilesConfig     `yaml:"tiles"`
	Solver    SolverConfig    `yaml:"solver"`
	Database  database.Config `yaml:"database"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   logger.Config   `yaml:"logging"`
}

// GridConfig describes the grid built at startup.
type GridConfig struct {
	Rows    int    `yaml:"rows"`
	Columns int    `yaml:"columns"`
	TileSet string `yaml:"tile_set"`

	// DefaultCellSize is used to resize the tile set before solving.
	// Zero keeps the tiles' own size.
	DefaultCellSize CellSize `yaml:"default_cell_size"`
}

// TilesConfig points at the tile descriptions.
type TilesConfig struct {
	// Path is a tile description file or a directory of one file per tile set.
	Path string `yaml:"path"`
}

// SolverConfig holds solver settings.
type SolverConfig struct {
	// Seed drives every random choice. 0 picks a time based seed.
	Seed int64 `yaml:"seed"`

	// DelayMS pauses between collapses so a renderer can follow along.
	DelayMS int `yaml:"delay_ms"`

	// Repair collapses contradictions to the error tile after solving.
	Repair bool `yaml:"repair"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// Address the stream server listens on, e.g. ":8080".
	Address string `yaml:"address"`

	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// MaxCells caps rows*columns of a streamed solve. 0 means unlimited.
	MaxCells int `yaml:"max_cells"`

	// MaxPerIP limits concurrent connections from one IP address. 0 means unlimited.
	MaxPerIP int `yaml:"max_connections_per_ip"`

	// MaxTotal limits concurrent connections overall. 0 means unlimited.
	MaxTotal int `yaml:"max_connections"`

	// Throttle limits how often one connection may start a solve.
	Throttle throttle.Config `yaml:"throttle"`
}

// CellSize is a cell size written either as one integer or as [width, height].
type CellSize wfc.Size

// UnmarshalYAML accepts 40 or [40, 30]
func (c *CellSize) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err == nil && n >= 0 {
			*c = CellSize(wfc.Square(n))
			return nil
		}
	case yaml.SequenceNode:
		var pair []int
		if err := node.Decode(&pair); err == nil && len(pair) == 2 && pair[0] >= 0 && pair[1] >= 0 {
			*c = CellSize{Width: pair[0], Height: pair[1]}
			return nil
		}
	}
	return fmt.Errorf("invalid default_cell_size format at line %d", node.Line)
}

// Size returns the value as a wfc.Size
func (c CellSize) Size() wfc.Size {
	return wfc.Size(c)
}

// IsZero reports whether no size was configured
func (c CellSize) IsZero() bool {
	return c.Width == 0 && c.Height == 0
}

// DefaultConfig returns a Config with working defaults.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Rows:    20,
			Columns: 20,
			TileSet: "roads",
		},
		Tiles: TilesConfig{
			Path: "tilesets/tiles.yaml",
		},
		Solver: SolverConfig{
			Seed:    0,
			DelayMS: 0,
			Repair:  true,
		},
		Database: database.DefaultConfig("data/runs.db"),
		WebSocket: WebSocketConfig{
			Address:        ":8080",
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
			MaxCells:       10000,
			MaxPerIP:       4,
			MaxTotal:       64,
			Throttle:       throttle.DefaultConfig(),
		},
		Logging: logger.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, returns default config.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// ApplyEnv applies environment overrides: the logging variables plus
// WFC_TILES, WFC_TILE_SET, WFC_SEED, WFC_DB_DRIVER, WFC_DB_PATH and WFC_WS_ADDRESS.
func (c *Config) ApplyEnv() {
	c.Logging.ApplyEnv()

	if v := os.Getenv("WFC_TILES"); v != "" {
		c.Tiles.Path = v
	}
	if v := os.Getenv("WFC_TILE_SET"); v != "" {
		c.Grid.TileSet = v
	}
	if v := os.Getenv("WFC_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Solver.Seed = seed
		}
	}
	if v := os.Getenv("WFC_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("WFC_DB_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("WFC_WS_ADDRESS"); v != "" {
		c.WebSocket.Address = v
	}
}

// Validate rejects settings the program cannot run with.
func (c *Config) Validate() error {
	if c.Grid.Rows < 0 || c.Grid.Columns < 0 {
		return fmt.Errorf("grid size %dx%d is negative", c.Grid.Rows, c.Grid.Columns)
	}
	if c.Grid.DefaultCellSize.Width < 0 || c.Grid.DefaultCellSize.Height < 0 {
		return fmt.Errorf("default_cell_size %v is negative", c.Grid.DefaultCellSize.Size())
	}
	if c.Solver.DelayMS < 0 {
		return fmt.Errorf("solver delay_ms %d is negative", c.Solver.DelayMS)
	}
	if _, err := database.DialectFor(c.Database.Driver); err != nil {
		return err
	}
	if c.WebSocket.MaxMessageSize < 0 {
		return fmt.Errorf("websocket max_message_size %d is negative", c.WebSocket.MaxMessageSize)
	}
	if c.WebSocket.MaxCells < 0 || c.WebSocket.MaxPerIP < 0 || c.WebSocket.MaxTotal < 0 {
		return fmt.Errorf("websocket limits must not be negative")
	}
	return nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
