// wfcruns lists, shows and deletes runs stored in the run archive.
//
// Usage:
//
//	go run ./cmd/wfcruns -config data/wfc.yaml            # list the latest runs
//	go run ./cmd/wfcruns -show 12 -output run12.txt       # draw one run
//	go run ./cmd/wfcruns -delete 12
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/tilewfc/internal/config"
	"github.com/lawnchairsociety/tilewfc/internal/database"
	"github.com/lawnchairsociety/tilewfc/internal/render"
)

func main() {
	configFile := flag.String("config", "data/wfc.yaml", "Path to config YAML file")
	dbPath := flag.String("db", "", "Path to SQLite run archive (overrides config)")
	tileSet := flag.String("tileset", "", "Only list runs of this tile set")
	limit := flag.Int("limit", 20, "Number of runs to list (0 for all)")
	showID := flag.Int64("show", 0, "Draw the run with this id")
	deleteID := flag.Int64("delete", 0, "Delete the run with this id")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if *dbPath != "" {
		cfg.Database.SQLitePath = *dbPath
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run archive: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var output strings.Builder
	switch {
	case *deleteID != 0:
		if err := db.DeleteRun(*deleteID); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting run %d: %v\n", *deleteID, err)
			os.Exit(1)
		}
		fmt.Printf("Run %d deleted\n", *deleteID)
		return
	case *showID != 0:
		run, err := db.GetRun(*showID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading run %d: %v\n", *showID, err)
			os.Exit(1)
		}
		if err := renderRun(&output, run, *showLegend); err != nil {
			fmt.Fprintf(os.Stderr, "Error drawing run %d: %v\n", *showID, err)
			os.Exit(1)
		}
	default:
		runs, err := db.ListRuns(*tileSet, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
			os.Exit(1)
		}
		listRuns(&output, runs)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Output written to %s\n", *outputFile)
	} else {
		fmt.Print(output.String())
	}
}

func listRuns(output *strings.Builder, runs []*database.Run) {
	if len(runs) == 0 {
		output.WriteString("No runs archived.\n")
		return
	}

	fmt.Fprintf(output, "%6s  %-16s %-19s %20s %9s %6s %7s\n", "ID", "TILE SET", "CREATED", "SEED", "SIZE", "STEPS", "ERRORS")
	output.WriteString(strings.Repeat("-", 92) + "\n")
	for _, r := range runs {
		fmt.Fprintf(output, "%6d  %-16s %-19s %20d %9s %6d %7d\n",
			r.ID,
			truncate(r.TileSet, 16),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Seed,
			fmt.Sprintf("%dx%d", r.Rows, r.Columns),
			r.Steps,
			r.ErrorTiles)
	}
}

func renderRun(output *strings.Builder, run *database.Run, legend bool) error {
	fmt.Fprintf(output, "Run %d: %s (Seed: %d, %dx%d)\n", run.ID, run.TileSet, run.Seed, run.Rows, run.Columns)
	fmt.Fprintf(output, "Archived: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(output, "Fingerprint: %s\n", run.Fingerprint)
	fmt.Fprintf(output, "Steps: %d  Collapsed: %d  Contradictions: %d  Error tiles: %d\n",
		run.Steps, run.Collapsed, run.Contradictions, run.ErrorTiles)
	output.WriteString(strings.Repeat("=", 60) + "\n\n")

	if err := render.Text(output, run.Grid()); err != nil {
		return err
	}

	if legend {
		output.WriteString("\n" + render.Legend())
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
