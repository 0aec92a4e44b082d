package database

import (
	"context"
	"errors"
	"image/color"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/lawnchairsociety/tilewfc/internal/wfc"
)

func sampleRun() *Run {
	return &Run{
		TileSet:        "roads",
		Fingerprint:    "abc123",
		Seed:           42,
		Rows:           2,
		Columns:        2,
		Steps:          3,
		Collapsed:      4,
		Contradictions: 0,
		ErrorTiles:     1,
		Cells: []RunCell{
			{Row: 0, Column: 0, TileName: "corner", Code: "111000000000"},
			{Row: 0, Column: 1, TileName: "corner", Code: "000000000111"},
			{Row: 1, Column: 0, TileName: "blank", Code: "000000000000"},
			{Row: 1, Column: 1, TileName: "error", Code: "!!!!!!!!!!!!", IsError: true},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTestDB(t)

	run := sampleRun()
	id, err := db.SaveRun(run)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id == 0 || run.ID != id {
		t.Fatalf("SaveRun id = %d, run.ID = %d", id, run.ID)
	}
	if run.CreatedAt.IsZero() {
		t.Error("SaveRun did not set CreatedAt")
	}

	got, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if got.TileSet != "roads" || got.Fingerprint != "abc123" || got.Seed != 42 {
		t.Errorf("GetRun() header = %+v", got)
	}
	if got.Rows != 2 || got.Columns != 2 || got.Steps != 3 || got.Collapsed != 4 || got.ErrorTiles != 1 {
		t.Errorf("GetRun() counts = %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
	if !reflect.DeepEqual(got.Cells, run.Cells) {
		t.Errorf("Cells = %+v, want %+v", got.Cells, run.Cells)
	}

	wantGrid := [][]string{
		{"111000000000", "000000000111"},
		{"000000000000", "!!!!!!!!!!!!"},
	}
	if !reflect.DeepEqual(got.Grid(), wantGrid) {
		t.Errorf("Grid() = %v, want %v", got.Grid(), wantGrid)
	}
}

func TestSaveRunKeepsCreatedAt(t *testing.T) {
	db := openTestDB(t)

	run := sampleRun()
	run.CreatedAt = time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := db.SaveRun(run)
	if err != nil {
		t.Fatal(err)
	}
	got, err := db.GetRun(id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetRun(999); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun(999) error = %v, want ErrRunNotFound", err)
	}
}

func TestSaveRunDuplicateCellRollsBack(t *testing.T) {
	db := openTestDB(t)

	run := sampleRun()
	run.Cells = append(run.Cells, run.Cells[0])
	if _, err := db.SaveRun(run); err == nil {
		t.Fatal("SaveRun with a duplicate cell returned nil error")
	}

	runs, err := db.ListRuns("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("failed save left %d runs behind", len(runs))
	}

	if _, err := db.SaveRun(nil); err == nil {
		t.Error("SaveRun(nil) returned nil error")
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)

	var ids []int64
	for _, name := range []string{"roads", "castle", "roads"} {
		run := sampleRun()
		run.TileSet = name
		id, err := db.SaveRun(run)
		if err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := db.ListRuns("", 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRuns() returned %d runs, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("ListRuns() not newest first: %d, %d, %d", all[0].ID, all[1].ID, all[2].ID)
	}
	if len(all[0].Cells) != 0 {
		t.Error("ListRuns() loaded cells")
	}

	roads, err := db.ListRuns("roads", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(roads) != 2 {
		t.Errorf("ListRuns(roads) returned %d runs, want 2", len(roads))
	}

	limited, err := db.ListRuns("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != ids[2] {
		t.Errorf("ListRuns(limit 1) = %v", limited)
	}
}

func TestDeleteRun(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveRun(sampleRun())
	if err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := db.GetRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun after delete error = %v, want ErrRunNotFound", err)
	}

	var cells int
	if err := db.DB().QueryRow("SELECT COUNT(*) FROM run_cells WHERE run_id = ?", id).Scan(&cells); err != nil {
		t.Fatal(err)
	}
	if cells != 0 {
		t.Errorf("%d cells survived the delete", cells)
	}

	if err := db.DeleteRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("second DeleteRun error = %v, want ErrRunNotFound", err)
	}
}

func TestRunFromGrid(t *testing.T) {
	blank, err := wfc.NewTile("blank", wfc.NewFill(color.RGBA{A: 255}, wfc.Square(10)), "000000000000")
	if err != nil {
		t.Fatal(err)
	}
	grid, err := wfc.NewGrid(2, 3, wfc.Library{"plain": {blank}}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := grid.Rebuild("plain"); err != nil {
		t.Fatal(err)
	}
	solver := wfc.NewSolver(grid, rand.New(rand.NewSource(2)))
	result, err := solver.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	run := RunFromGrid(grid, 2, result.Steps, "fp")
	if run.TileSet != "plain" || run.Rows != 2 || run.Columns != 3 || run.Seed != 2 || run.Fingerprint != "fp" {
		t.Errorf("RunFromGrid() header = %+v", run)
	}
	if run.Steps != 6 || run.Collapsed != 6 || run.ErrorTiles != 0 {
		t.Errorf("RunFromGrid() counts = %+v", run)
	}
	if len(run.Cells) != 6 {
		t.Fatalf("len(Cells) = %d, want 6", len(run.Cells))
	}
	for _, c := range run.Cells {
		if c.TileName != "blank" || c.Code != "000000000000" || c.IsError {
			t.Errorf("cell = %+v", c)
		}
	}

	db := openTestDB(t)
	id, err := db.SaveRun(run)
	if err != nil {
		t.Fatal(err)
	}
	got, err := db.GetRun(id)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Grid(), grid.Codes()) {
		t.Errorf("archived grid = %v, want %v", got.Grid(), grid.Codes())
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	tests := []any{
		want,
		"2024-05-01 12:30:00",
		"2024-05-01T12:30:00Z",
		[]byte("2024-05-01 12:30:00+00:00"),
	}
	for _, v := range tests {
		if got := parseTimestamp(v); !got.Equal(want) {
			t.Errorf("parseTimestamp(%v) = %v, want %v", v, got, want)
		}
	}
	if got := parseTimestamp(nil); !got.IsZero() {
		t.Errorf("parseTimestamp(nil) = %v, want zero", got)
	}
}
