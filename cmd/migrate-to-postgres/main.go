// migrate-to-postgres copies the run archive from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/runs.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user wfc \
//	    -pg-password wfc \
//	    -pg-database wfc
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/lawnchairsociety/tilewfc/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/runs.db", "Path to SQLite run archive")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "wfc", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "wfc", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "wfc", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	tileSet := flag.String("tileset", "", "Only copy runs of this tile set")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Migration Tool")
	log.Println("====================================")

	log.Printf("Opening SQLite archive: %s", *sqlitePath)
	src, err := database.Open(database.DefaultConfig(*sqlitePath))
	if err != nil {
		log.Fatalf("Failed to open SQLite archive: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	var dst *database.Database
	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	} else {
		log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", pg.User, pg.Host, pg.Port, pg.Database)
		dst, err = database.Open(database.Config{Enabled: true, Driver: string(database.DialectPostgres), Postgres: pg})
		if err != nil {
			log.Fatalf("Failed to open PostgreSQL database: %v", err)
		}
		defer dst.Close()
	}

	count, cells, err := migrateRuns(src, dst, *tileSet)
	if err != nil {
		log.Fatalf("Failed to migrate runs: %v", err)
	}

	log.Println("====================================")
	log.Printf("Migration complete! Runs: %d, cells: %d", count, cells)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

// migrateRuns copies every run of src, oldest first, into dst. A nil dst only
// counts what would be copied. Archive ids are reassigned by dst.
func migrateRuns(src, dst *database.Database, tileSet string) (runs, cells int, err error) {
	list, err := src.ListRuns(tileSet, 0)
	if err != nil {
		return 0, 0, err
	}

	for i := len(list) - 1; i >= 0; i-- {
		run, err := src.GetRun(list[i].ID)
		if err != nil {
			return runs, cells, fmt.Errorf("run %d: %w", list[i].ID, err)
		}

		oldID := run.ID
		if dst != nil {
			newID, err := dst.SaveRun(run)
			if err != nil {
				return runs, cells, fmt.Errorf("run %d: %w", oldID, err)
			}
			log.Printf("  Run %d -> %d (%s, %d cells)", oldID, newID, run.TileSet, len(run.Cells))
		} else {
			log.Printf("  Run %d (%s, %d cells)", oldID, run.TileSet, len(run.Cells))
		}
		runs++
		cells += len(run.Cells)
	}
	return runs, cells, nil
}
