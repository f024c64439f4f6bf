package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/kwickslot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/kwickslot/internal/config"
)

// Usage: migrations up | migrations <name>
func main() {
	if len(os.Args) < 2 {
		slog.Error("a migration name or \"up\" is required")
		os.Exit(1)
	}
	migrationName := os.Args[1]

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	pg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DB:       os.Getenv("POSTGRES_DB"),
	}
	if pg.Port == "" {
		pg.Port = "5432"
	}

	db, err := sql.Open("postgres", pg.ConnString())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if migrationName == "up" {
		if err := postgres.MigrateUp(ctx, db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		slog.Info("all migrations applied")
		return
	}

	file, err := postgres.RunMigration(ctx, db, migrationName)
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migration file executed successfully", "file", file)
}
