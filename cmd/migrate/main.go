package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"StateCache/internal/observability"
	"StateCache/internal/persistence"
)

type config struct {
	PostgresDSN   string `env:"STATECACHE_POSTGRES_DSN" envDefault:"postgres://localhost:5432/statecache?sslmode=disable"`
	MigrationsDir string `env:"STATECACHE_MIGRATIONS_DIR" envDefault:"migrations"`

	Log observability.LogConfig `envPrefix:"STATECACHE_LOG_"`
}

func usage() {
	fmt.Println("Usage: migrate <up|down>")
	fmt.Println("  up   - apply all pending migrations")
	fmt.Println("  down - roll back the last migration")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  STATECACHE_POSTGRES_DSN    - Postgres connection string")
	fmt.Println("  STATECACHE_MIGRATIONS_DIR  - path to migrations directory (default: migrations)")
	fmt.Println("  STATECACHE_LOG_FORMAT      - json or console (default: json)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		l := observability.NewLogger("migrate")
		l.Fatal().Err(err).Msg("parse config")
	}
	observability.SetLogConfig(cfg.Log)
	logger := observability.NewLogger("migrate")

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	ctx := context.Background()
	migrator := persistence.NewMigrator(db, cfg.MigrationsDir, logger)

	switch os.Args[1] {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("migrate up")
		}
		logger.Info().Int("applied", applied).Msg("all migrations applied")

	case "down":
		if err := migrator.Down(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migrate down")
		}
		logger.Info().Msg("last migration rolled back")

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (use 'up' or 'down')\n", os.Args[1])
		os.Exit(1)
	}
}
