package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Migrations holds the schema for the Postgres feedback backend. Files are
// named <id>.up.sql and <id>.down.sql and applied in id order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const migrationsTable = "schema_migrations"

// Migration is one schema step.
type Migration struct {
	ID   string
	Up   string
	Down string
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	ID        string
	Applied   bool
	AppliedAt time.Time
}

// LoadMigrations reads every migration under dir in fsys.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	byID := make(map[string]*Migration)
	for _, e := range entries {
		name := e.Name()
		var id string
		var up bool
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			id, up = strings.TrimSuffix(name, ".up.sql"), true
		case strings.HasSuffix(name, ".down.sql"):
			id = strings.TrimSuffix(name, ".down.sql")
		default:
			continue
		}

		body, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		m, ok := byID[id]
		if !ok {
			m = &Migration{ID: id}
			byID[id] = m
		}
		if up {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byID))
	for _, m := range byID {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has no up script", m.ID)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Migrator applies migrations through database/sql.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	logger     *zap.Logger
}

func NewMigrator(db *sql.DB, migrations []Migration, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, migrations: migrations, logger: logger}
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, migrationsTable)

	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) applied(ctx context.Context) (map[string]time.Time, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("SELECT id, applied_at FROM %s", migrationsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		out[id] = at
	}
	return out, rows.Err()
}

// Up applies pending migrations in order, at most steps of them when
// steps > 0. It returns how many were applied.
func (m *Migrator) Up(ctx context.Context, steps int) (int, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.ID]; ok {
			continue
		}
		if steps > 0 && count == steps {
			break
		}
		if err := m.run(ctx, mig.ID, mig.Up, true); err != nil {
			return count, fmt.Errorf("failed to apply migration %s: %w", mig.ID, err)
		}
		m.logger.Info("applied migration", zap.String("id", mig.ID))
		count++
	}
	return count, nil
}

// Down rolls back applied migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if _, ok := applied[mig.ID]; !ok {
			continue
		}
		if steps > 0 && count == steps {
			break
		}
		if mig.Down == "" {
			return count, fmt.Errorf("migration %s cannot be rolled back", mig.ID)
		}
		if err := m.run(ctx, mig.ID, mig.Down, false); err != nil {
			return count, fmt.Errorf("failed to roll back migration %s: %w", mig.ID, err)
		}
		m.logger.Info("rolled back migration", zap.String("id", mig.ID))
		count++
	}
	return count, nil
}

// Status lists every known migration in order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, len(m.migrations))
	for i, mig := range m.migrations {
		at, ok := applied[mig.ID]
		out[i] = MigrationStatus{ID: mig.ID, Applied: ok, AppliedAt: at}
	}
	return out, nil
}

func (m *Migrator) run(ctx context.Context, id, script string, up bool) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	record := fmt.Sprintf("INSERT INTO %s (id) VALUES ($1)", migrationsTable)
	if !up {
		record = fmt.Sprintf("DELETE FROM %s WHERE id = $1", migrationsTable)
	}
	if _, err := tx.ExecContext(ctx, record, id); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
