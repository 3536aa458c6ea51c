// Package migrations applies the embedded goose schema for the SQL
// backend.  One directory per dialect lives under sql/; the driver name
// used by internal/database picks the directory and goose dialect.
package migrations

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*/*.sql
var files embed.FS

// dialects maps database driver names to goose dialect and directory.
var dialects = map[string]struct{ goose, dir string }{
	"pgx":   {"postgres", "sql/postgres"},
	"mysql": {"mysql", "sql/mysql"},
}

func prepare(driver string) (string, error) {
	d, ok := dialects[driver]
	if !ok {
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
	goose.SetBaseFS(files)
	if err := goose.SetDialect(d.goose); err != nil {
		return "", fmt.Errorf("set dialect: %w", err)
	}
	return d.dir, nil
}

// Up applies all pending migrations.
func Up(ctx context.Context, db *sqlx.DB) error {
	dir, err := prepare(db.DriverName())
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Down rolls back the last steps migrations.
func Down(ctx context.Context, db *sqlx.DB, steps int) error {
	dir, err := prepare(db.DriverName())
	if err != nil {
		return err
	}
	for range steps {
		if err := goose.DownContext(ctx, db.DB, dir); err != nil {
			return fmt.Errorf("rollback migration: %w", err)
		}
	}
	return nil
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, db *sqlx.DB) error {
	dir, err := prepare(db.DriverName())
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB, dir)
}
