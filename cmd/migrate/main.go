// Command migrate manages the schema of the Postgres feedback backend.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/config"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/database"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/telemetry"
)

const (
	exitConfig = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var (
		configPath = flags.String("config", "", "Config file (default configs/config.yaml if present)")
		action     = flags.String("action", "up", "Migration action: up, down, status")
		steps      = flags.Int("steps", 0, "Number of migrations to run (0 = all)")
		dir        = flags.String("dir", "", "Read migrations from this directory instead of the built-in set")
	)
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitConfig
	}
	logger, _ := telemetry.SetupLogger(cfg.LogLevel)
	zlog, err := telemetry.NewZapLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("failed to build logger", "error", err)
		return exitConfig
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Database.URL == "" {
		logger.Error("database.url is required")
		return exitConfig
	}

	var (
		src     fs.FS = database.Migrations
		srcPath       = "migrations"
	)
	if *dir != "" {
		src, srcPath = os.DirFS(*dir), "."
	}
	migrations, err := database.LoadMigrations(src, srcPath)
	if err != nil {
		logger.Error("failed to load migrations", "error", err)
		return exitConfig
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return exitConfig
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	migrator := database.NewMigrator(db, migrations, zlog)

	switch *action {
	case "up":
		n, err := migrator.Up(ctx, *steps)
		if err != nil {
			logger.Error("migration failed", "error", err, "applied", n)
			return exitConfig
		}
		logger.Info("migrations completed", "count", n)
	case "down":
		n, err := migrator.Down(ctx, *steps)
		if err != nil {
			logger.Error("rollback failed", "error", err, "rolled_back", n)
			return exitConfig
		}
		logger.Info("rollback completed", "count", n)
	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			logger.Error("status failed", "error", err)
			return exitConfig
		}
		printStatus(stdout, status)
	default:
		logger.Error("unknown action", "action", *action)
		return exitUsage
	}
	return 0
}

func printStatus(w io.Writer, status []database.MigrationStatus) {
	applied := 0
	for _, s := range status {
		if s.Applied {
			applied++
		}
	}
	fmt.Fprintf(w, "Applied migrations: %d of %d\n", applied, len(status))
	for _, s := range status {
		if s.Applied {
			fmt.Fprintf(w, "  [x] %s (applied at %s)\n", s.ID, s.AppliedAt.Format(time.RFC3339))
		} else {
			fmt.Fprintf(w, "  [ ] %s\n", s.ID)
		}
	}
}
