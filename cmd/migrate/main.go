package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/samirrijal/waypoint/internal/adapters/postgres"
	"github.com/samirrijal/waypoint/internal/pkg/config"
)

var upFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_core_tables.sql",
}

const downSQL = `
DROP TABLE IF EXISTS images;
DROP TABLE IF EXISTS fixes;
`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down> [migrations-root]")
	}
	root := "."
	if len(os.Args) > 2 {
		root = os.Args[2]
	}

	cfg, err := config.Load("waypoint-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db, root)
	case "down":
		if _, err := db.Pool.Exec(ctx, downSQL); err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Println("tables dropped")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB, root string) {
	for _, f := range upFiles {
		data, err := os.ReadFile(filepath.Join(root, f))
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}
