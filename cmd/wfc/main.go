package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lawnchairsociety/tilewfc/internal/config"
	"github.com/lawnchairsociety/tilewfc/internal/database"
	"github.com/lawnchairsociety/tilewfc/internal/logger"
	"github.com/lawnchairsociety/tilewfc/internal/render"
	"github.com/lawnchairsociety/tilewfc/internal/server"
	"github.com/lawnchairsociety/tilewfc/internal/tileset"
	"github.com/lawnchairsociety/tilewfc/internal/wfc"
	"gopkg.in/yaml.v3"
)

// Export is the YAML document written by -output
type Export struct {
	TileSet     string     `yaml:"tile_set"`
	Fingerprint string     `yaml:"fingerprint"`
	Seed        int64      `yaml:"seed"`
	Rows        int        `yaml:"rows"`
	Columns     int        `yaml:"columns"`
	CellSize    []int      `yaml:"cell_size,flow"`
	Steps       int        `yaml:"steps"`
	Repaired    int        `yaml:"repaired"`
	ErrorTiles  int        `yaml:"error_tiles"`
	RunID       int64      `yaml:"run_id,omitempty"`
	Codes       [][]string `yaml:"codes"`
}

func main() {
	configFile := flag.String("config", "data/wfc.yaml", "Path to config YAML file")
	tilesPath := flag.String("tiles", "", "Tile description file or directory (overrides config)")
	tileSetName := flag.String("tileset", "", "Tile set to solve with (overrides config)")
	rows := flag.Int("rows", -1, "Grid rows (overrides config)")
	columns := flag.Int("columns", -1, "Grid columns (overrides config)")
	seed := flag.Int64("seed", 0, "Random seed (default: config seed, or random based on current time)")
	delay := flag.Duration("delay", -1, "Pause between collapses, e.g. 50ms (overrides config)")
	noRepair := flag.Bool("no-repair", false, "Leave contradictions open instead of placing the error tile")
	outputFile := flag.String("output", "", "Write the solved grid as YAML to this file")
	printMap := flag.Bool("print", false, "Print the solved grid as text")
	archive := flag.Bool("archive", false, "Store the run in the database (same as database.enabled)")
	dbPath := flag.String("db", "", "Path to SQLite run archive (overrides config)")
	listSets := flag.Bool("list", false, "List the tile sets and exit")
	serve := flag.Bool("serve", false, "Run the WebSocket stream server instead of solving once")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()
	applyFlags(cfg, *tilesPath, *tileSetName, *rows, *columns, *seed, *delay, *noRepair, *archive, *dbPath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize logger first (before any logging)
	if err := logger.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	library, err := tileset.LoadLibrary(cfg.Tiles.Path)
	if err != nil {
		logger.Error("Failed to load tile sets", "path", cfg.Tiles.Path, "error", err)
		os.Exit(1)
	}
	logger.Info("Tile sets loaded", "path", cfg.Tiles.Path, "sets", library.Names())

	if *listSets {
		for _, name := range library.Names() {
			size, _, _ := library.ContentSize(name)
			fmt.Printf("%-20s %3d tiles  %s  %s\n", name, len(library[name]), size, tileset.Fingerprint(library[name]))
		}
		return
	}

	if !cfg.Grid.DefaultCellSize.IsZero() {
		for _, name := range library.Names() {
			if ok, _ := library.Resize(name, cfg.Grid.DefaultCellSize.Size()); !ok {
				logger.Warning("Tile set could not be resized", "tile_set", name, "size", cfg.Grid.DefaultCellSize.Size())
			}
		}
	}

	var db *database.Database
	if cfg.Database.Enabled {
		db, err = database.Open(cfg.Database)
		if err != nil {
			logger.Error("Failed to open run archive", "driver", cfg.Database.Driver, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("Run archive opened", "driver", db.Dialect().DriverName())
	}

	if *serve {
		runServer(cfg, library, db)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	export, err := solveOnce(ctx, cfg, library, db)
	if err != nil {
		logger.Error("Solve failed", "error", err)
		os.Exit(1)
	}

	if *printMap {
		if err := render.Text(os.Stdout, export.Codes); err != nil {
			logger.Error("Failed to print grid", "error", err)
		}
	}

	if *outputFile != "" {
		if err := writeExport(*outputFile, export); err != nil {
			logger.Error("Failed to write output", "path", *outputFile, "error", err)
			os.Exit(1)
		}
		logger.Info("Grid written", "path", *outputFile)
	}
}

// applyFlags lets explicit command-line flags win over the config file
func applyFlags(cfg *config.Config, tiles, tileSet string, rows, columns int, seed int64, delay time.Duration, noRepair, archive bool, dbPath string) {
	if tiles != "" {
		cfg.Tiles.Path = tiles
	}
	if tileSet != "" {
		cfg.Grid.TileSet = tileSet
	}
	if rows >= 0 {
		cfg.Grid.Rows = rows
	}
	if columns >= 0 {
		cfg.Grid.Columns = columns
	}
	if seed != 0 {
		cfg.Solver.Seed = seed
	}
	if delay >= 0 {
		cfg.Solver.DelayMS = int(delay / time.Millisecond)
	}
	if noRepair {
		cfg.Solver.Repair = false
	}
	if archive {
		cfg.Database.Enabled = true
	}
	if dbPath != "" {
		cfg.Database.SQLitePath = dbPath
	}
}

// solveOnce builds a grid from the configured tile set and solves it to completion
func solveOnce(ctx context.Context, cfg *config.Config, library wfc.Library, db *database.Database) (*Export, error) {
	seed := cfg.Solver.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		logger.Info("Solver seed selected", "seed", seed, "random", true)
	} else {
		logger.Info("Solver seed selected", "seed", seed, "random", false)
	}

	grid, err := wfc.NewGrid(cfg.Grid.Rows, cfg.Grid.Columns, library, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	if err := grid.Rebuild(cfg.Grid.TileSet); err != nil {
		return nil, fmt.Errorf("available tile sets %v: %w", library.Names(), err)
	}
	logger.Info("Grid built",
		"tile_set", cfg.Grid.TileSet,
		"rows", grid.Rows(),
		"columns", grid.Columns(),
		"cell_size", grid.CellSize().String())

	solver := wfc.NewSolver(grid, rand.New(rand.NewSource(seed+1)),
		wfc.WithDelay(time.Duration(cfg.Solver.DelayMS)*time.Millisecond),
		wfc.WithObserver(func(step wfc.Step) {
			logger.Debug("Cell collapsed",
				"step", step.Index,
				"row", step.Row,
				"column", step.Column,
				"tile", step.Tile.String(),
				"entropy", step.Entropy,
				"repair", step.Repair)
		}))

	start := time.Now()
	steps, err := solver.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("solve stopped after %d steps: %w", steps, err)
	}
	repaired := 0
	if cfg.Solver.Repair {
		repaired = len(solver.RepairContradictions())
	}
	stats := grid.Stats()
	logger.Info("Solve finished",
		"steps", steps,
		"repaired", repaired,
		"collapsed", stats.Collapsed,
		"open", stats.Open,
		"contradictions", stats.Contradictions,
		"error_tiles", stats.ErrorTiles,
		"elapsed", time.Since(start).String())

	fingerprint := tileset.Fingerprint(library[cfg.Grid.TileSet])
	size := grid.CellSize()
	export := &Export{
		TileSet:     cfg.Grid.TileSet,
		Fingerprint: fingerprint,
		Seed:        seed,
		Rows:        grid.Rows(),
		Columns:     grid.Columns(),
		CellSize:    []int{size.Width, size.Height},
		Steps:       steps,
		Repaired:    repaired,
		ErrorTiles:  stats.ErrorTiles,
		Codes:       grid.Codes(),
	}

	if db != nil {
		id, err := db.SaveRun(database.RunFromGrid(grid, seed, steps, fingerprint))
		if err != nil {
			return nil, fmt.Errorf("failed to archive run: %w", err)
		}
		export.RunID = id
		logger.Info("Run archived", "run_id", id)
	}

	return export, nil
}

func writeExport(path string, export *Export) error {
	data, err := yaml.Marshal(export)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func runServer(cfg *config.Config, library wfc.Library, db *database.Database) {
	srv := server.NewStreamServer(cfg.WebSocket, library, db)

	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.WebSocket.AllowedOrigins) == 1 && cfg.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errc:
		if err != nil {
			logger.Error("Stream server error", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warning("Shutdown did not complete cleanly", "error", err)
	}
}
