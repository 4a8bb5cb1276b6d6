package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"roidecode/adapters/db/postgres/migrations"
	"roidecode/internal"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 2 {
		databaseURL = os.Args[2]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [up|status] [database_url] (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB, internal.NewDefaultLogger())
	ctx := context.Background()

	switch command {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Printf("Migrations complete")
	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		applied := 0
		for _, s := range status {
			state := "pending"
			if s.Applied {
				state = "applied"
				applied++
			}
			fmt.Printf("  %s: %s\n", s.Version, state)
		}
		fmt.Printf("\nSummary: %d/%d migrations applied\n", applied, len(status))
	default:
		log.Fatalf("Unknown command %q, want up or status", command)
	}
}
