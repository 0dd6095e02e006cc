package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-foodcourt/internal/config"
	"ms-foodcourt/internal/database/migrations"
	"ms-foodcourt/internal/logger"
)

var dataMigrations = []migrations.DataMigration{
	migrations.PreferenceConsolidation{},
	migrations.ReviewDeduplication{},
}

func main() {
	action := flag.String("action", "up", "up | down | data | data-rollback | version")
	name := flag.String("name", "", "data migration name (for data-rollback)")
	dir := flag.String("dir", "./migrations", "directory containing SQL migration files")
	flag.Parse()

	logger := logger.NewLogger("migrate")
	defer logger.Close()

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: *dir})
	defer runner.Close()

	ctx := context.Background()

	switch *action {
	case "up":
		if err := runner.MigrateUp(); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Schema migration failed: %v", err))
		}
		logger.Info("MIGRATION", "Schema migrations applied")

	case "down":
		if err := runner.MigrateDown(); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Schema rollback failed: %v", err))
		}
		logger.Info("MIGRATION", "Schema migrations rolled back")

	case "data":
		if err := migrations.RunDataMigrations(ctx, bunDB, logger, dataMigrations...); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Data migration failed: %v", err))
		}
		logger.Info("MIGRATION", "Data migrations applied")

	case "data-rollback":
		target := findDataMigration(*name)
		if target == nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Unknown data migration: %q", *name))
		}
		if err := migrations.RollbackDataMigration(ctx, bunDB, logger, target); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Data rollback failed: %v", err))
		}

	case "version":
		version, err := runner.Version()
		if err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Failed to read schema version: %v", err))
		}
		logger.Info("MIGRATION", fmt.Sprintf("Current schema version: %d", version))

	default:
		logger.Fatal("MIGRATION", fmt.Sprintf("Unknown action: %q", *action))
	}
}

func findDataMigration(name string) migrations.DataMigration {
	for _, m := range dataMigrations {
		if m.Name() == name {
			return m
		}
	}
	return nil
}
