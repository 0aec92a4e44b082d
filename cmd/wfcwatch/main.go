// wfcwatch connects to a running stream server and draws a solve as it happens.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/tilewfc/internal/render"
	"github.com/lawnchairsociety/tilewfc/internal/server"
	"github.com/lawnchairsociety/tilewfc/internal/streamclient"
)

// clearScreen moves the cursor home and clears the terminal
const clearScreen = "\033[H\033[2J"

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "Stream server URL")
	origin := flag.String("origin", "", "Origin header to send")
	tileSet := flag.String("tileset", "roads", "Tile set to solve with")
	rows := flag.Int("rows", 10, "Grid rows")
	columns := flag.Int("columns", 20, "Grid columns")
	seed := flag.Int64("seed", 0, "Random seed (0 lets the server pick)")
	delay := flag.Int("delay", 30, "Pause between collapses in milliseconds")
	noRepair := flag.Bool("no-repair", false, "Leave contradictions open")
	live := flag.Bool("live", true, "Redraw the grid after every step")
	list := flag.Bool("list", false, "List the server's tile sets and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var header http.Header
	if *origin != "" {
		header = http.Header{"Origin": {*origin}}
	}

	client, err := streamclient.Dial(ctx, *url, header)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if *list {
		names, err := client.TileSets(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	var board *streamclient.Board
	var seedUsed int64
	draw := func() {
		fmt.Print(clearScreen)
		fmt.Printf("%s %dx%d seed %d - step %d, repairs %d\n\n", *tileSet, board.Rows, board.Columns, seedUsed, board.Steps, board.Repairs)
		render.Text(os.Stdout, board.Codes())
	}

	done, err := client.Solve(ctx, server.Request{
		TileSet:  *tileSet,
		Rows:     *rows,
		Columns:  *columns,
		Seed:     *seed,
		DelayMS:  *delay,
		NoRepair: *noRepair,
	}, streamclient.Handlers{
		Start: func(ev server.StartEvent) {
			board = streamclient.NewBoard(ev)
			seedUsed = ev.Seed
		},
		Step: func(ev server.StepEvent) {
			board.Apply(ev)
			if *live {
				draw()
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if board != nil && !*live {
		draw()
	}
	fmt.Printf("\nDone: %d steps, %d repaired, %d collapsed, %d contradictions, %d error tiles",
		done.Steps, done.Repaired, done.Collapsed, done.Contradictions, done.ErrorTiles)
	if done.RunID != 0 {
		fmt.Printf(", archived as run %d", done.RunID)
	}
	fmt.Println()
}
