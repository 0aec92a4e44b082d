package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wfc.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Grid.Rows != 20 || cfg.Grid.Columns != 20 {
		t.Errorf("default grid = %dx%d, want 20x20", cfg.Grid.Rows, cfg.Grid.Columns)
	}
	if !cfg.Solver.Repair {
		t.Error("default Repair = false, want true")
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Enabled {
		t.Errorf("default database = %+v, want disabled sqlite", cfg.Database)
	}
	if len(cfg.WebSocket.AllowedOrigins) != 0 {
		t.Errorf("expected empty allowed origins by default, got %v", cfg.WebSocket.AllowedOrigins)
	}
	if cfg.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("expected max message size 4096, got %d", cfg.WebSocket.MaxMessageSize)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("default log level = %q, want INFO", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config for missing file, got nil")
	}
	if cfg.Grid.TileSet != DefaultConfig().Grid.TileSet {
		t.Errorf("TileSet = %q, want default", cfg.Grid.TileSet)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
grid:
  rows: 8
  columns: 12
  tile_set: castle
  default_cell_size: [32, 24]
tiles:
  path: assets/tiles
solver:
  seed: 99
  delay_ms: 15
  repair: false
database:
  enabled: true
  driver: postgres
  postgres:
    host: db.local
    port: 5433
    conn_max_lifetime: 2m
websocket:
  address: ":9000"
  allowed_origins:
    - "https://example.com"
    - "http://localhost:3000"
  max_message_size: 8192
  max_connections_per_ip: 2
  throttle:
    max_requests: 3
    window: 30s
logging:
  level: DEBUG
  console_format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Grid.Rows != 8 || cfg.Grid.Columns != 12 || cfg.Grid.TileSet != "castle" {
		t.Errorf("Grid = %+v", cfg.Grid)
	}
	if got := cfg.Grid.DefaultCellSize.Size(); got != (wfc.Size{Width: 32, Height: 24}) {
		t.Errorf("DefaultCellSize = %v, want 32x24", got)
	}
	if cfg.Tiles.Path != "assets/tiles" {
		t.Errorf("Tiles.Path = %q", cfg.Tiles.Path)
	}
	if cfg.Solver.Seed != 99 || cfg.Solver.DelayMS != 15 || cfg.Solver.Repair {
		t.Errorf("Solver = %+v", cfg.Solver)
	}
	if !cfg.Database.Enabled || cfg.Database.Driver != "postgres" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.Postgres.Host != "db.local" || cfg.Database.Postgres.Port != 5433 {
		t.Errorf("Postgres = %+v", cfg.Database.Postgres)
	}
	if cfg.Database.Postgres.ConnMaxLifetime != 2*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 2m", cfg.Database.Postgres.ConnMaxLifetime)
	}
	// untouched keys keep their defaults
	if cfg.Database.Postgres.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want default disable", cfg.Database.Postgres.SSLMode)
	}
	if cfg.WebSocket.Address != ":9000" || len(cfg.WebSocket.AllowedOrigins) != 2 || cfg.WebSocket.MaxMessageSize != 8192 {
		t.Errorf("WebSocket = %+v", cfg.WebSocket)
	}
	if cfg.WebSocket.MaxPerIP != 2 || cfg.WebSocket.MaxTotal != 64 {
		t.Errorf("connection limits = %d/%d, want 2/64", cfg.WebSocket.MaxPerIP, cfg.WebSocket.MaxTotal)
	}
	if th := cfg.WebSocket.Throttle; !th.Enabled || th.MaxRequests != 3 || th.Window != 30*time.Second || th.RepeatCooldown != 5*time.Second {
		t.Errorf("Throttle = %+v", th)
	}
	if cfg.Logging.Level != "DEBUG" || cfg.Logging.ConsoleFormat != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Logging.ConsoleEnabled {
		t.Error("Logging.ConsoleEnabled lost its default")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "grid: [unclosed\n")

	cfg, err := LoadConfig(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
	if cfg == nil || cfg.Grid.Rows != 20 {
		t.Error("expected defaults alongside the parse error")
	}
}

func TestCellSizeUnmarshal(t *testing.T) {
	tests := []struct {
		src     string
		want    wfc.Size
		wantErr bool
	}{
		{"40", wfc.Square(40), false},
		{"[40, 30]", wfc.Size{Width: 40, Height: 30}, false},
		{"0", wfc.Size{}, false},
		{"qwe", wfc.Size{}, true},
		{"[1, 2, 3]", wfc.Size{}, true},
		{"-4", wfc.Size{}, true},
		{"{w: 1}", wfc.Size{}, true},
	}

	for _, tt := range tests {
		var holder struct {
			Size CellSize `yaml:"size"`
		}
		err := yaml.Unmarshal([]byte("size: "+tt.src), &holder)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Unmarshal(%s) error = nil, want error", tt.src)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.src, err)
		}
		if got := holder.Size.Size(); got != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.src, got, tt.want)
		}
	}

	if !(CellSize{}).IsZero() || (CellSize{Width: 1}).IsZero() {
		t.Error("IsZero is wrong")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("WFC_TILES", "/srv/tiles")
	t.Setenv("WFC_TILE_SET", "castle")
	t.Setenv("WFC_SEED", "1234")
	t.Setenv("WFC_DB_DRIVER", "postgres")
	t.Setenv("WFC_DB_PATH", "/tmp/runs.db")
	t.Setenv("WFC_WS_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "ERROR")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Tiles.Path != "/srv/tiles" || cfg.Grid.TileSet != "castle" || cfg.Solver.Seed != 1234 {
		t.Errorf("env overrides not applied: %+v %+v %+v", cfg.Tiles, cfg.Grid, cfg.Solver)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.SQLitePath != "/tmp/runs.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.WebSocket.Address != ":7000" {
		t.Errorf("WebSocket.Address = %q", cfg.WebSocket.Address)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Logging.Level = %q, want ERROR", cfg.Logging.Level)
	}
}

func TestApplyEnv_BadSeedIgnored(t *testing.T) {
	t.Setenv("WFC_SEED", "lots")

	cfg := DefaultConfig()
	cfg.Solver.Seed = 5
	cfg.ApplyEnv()
	if cfg.Solver.Seed != 5 {
		t.Errorf("Seed = %d, want 5", cfg.Solver.Seed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative rows", func(c *Config) { c.Grid.Rows = -1 }},
		{"negative columns", func(c *Config) { c.Grid.Columns = -3 }},
		{"negative cell size", func(c *Config) { c.Grid.DefaultCellSize = CellSize{Width: -1} }},
		{"negative delay", func(c *Config) { c.Solver.DelayMS = -10 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"negative message size", func(c *Config) { c.WebSocket.MaxMessageSize = -1 }},
		{"negative connection limit", func(c *Config) { c.WebSocket.MaxPerIP = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Grid.Rows, cfg.Grid.Columns = 0, 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with an empty grid = %v, want nil", err)
	}
}

func TestIsOriginAllowed_EmptyList_SameOrigin(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{},
	}

	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected empty origin to be allowed (same-origin)")
	}
	if !cfg.IsOriginAllowed("http://localhost:4000", "localhost:4000") {
		t.Error("expected matching origin to be allowed (same-origin)")
	}
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected different origin to be rejected (same-origin policy)")
	}
}

func TestIsOriginAllowed_Wildcard(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{"*"},
	}

	if !cfg.IsOriginAllowed("http://anything.com", "localhost:4000") {
		t.Error("expected wildcard to allow any origin")
	}
	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected wildcard to allow empty origin")
	}
}

func TestIsOriginAllowed_ExactMatch(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{
			"https://example.com",
			"http://localhost:3000",
		},
	}

	if !cfg.IsOriginAllowed("https://example.com", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}
	if !cfg.IsOriginAllowed("http://localhost:3000", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected non-matching origin to be rejected")
	}
	if cfg.IsOriginAllowed("https://example.com:8080", "localhost:4000") {
		t.Error("expected partial match to be rejected")
	}
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		origin      string
		requestHost string
		expected    bool
	}{
		{"", "localhost:4000", true},                       // No origin header
		{"http://localhost:4000", "localhost:4000", true},  // HTTP match
		{"https://localhost:4000", "localhost:4000", true}, // HTTPS match
		{"http://localhost:4000/", "localhost:4000", true}, // Trailing slash
		{"http://example.com", "localhost:4000", false},    // Different host
		{"http://localhost:3000", "localhost:4000", false}, // Different port
		{"ws://localhost:4000", "localhost:4000", true},    // WebSocket scheme
	}

	for _, tt := range tests {
		result := isSameOrigin(tt.origin, tt.requestHost)
		if result != tt.expected {
			t.Errorf("isSameOrigin(%q, %q) = %v, want %v",
				tt.origin, tt.requestHost, result, tt.expected)
		}
	}
}
