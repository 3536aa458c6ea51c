// Package database centralises sqlx connection helpers.  Two drivers are
// registered:
//
//   - "mysql" (go-sql-driver/mysql), which also serves MariaDB.
//   - "pgx"   (jackc/pgx/v5/stdlib) for Postgres and managed Postgres
//     backends.
//
// sqlx picks the bind-variable style from the driver name, so repository
// SQL written with `?` placeholders and passed through db.Rebind works on
// both.
//
// Public entry points:
//
//	Open(ctx, driver, dsn)              – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, o) – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Supported driver names.
const (
	MySQL    = "mysql"
	Postgres = "pgx"
)

// Options tunes the pool.  Zero fields select the defaults.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, Options{})
}

// OpenWithOptions lets callers tune the pool.
func OpenWithOptions(ctx context.Context, driver, dsn string, o Options) (*sqlx.DB, error) {
	switch driver {
	case MySQL, Postgres:
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
	if o.MaxOpen <= 0 {
		o.MaxOpen = 15
	}
	if o.MaxIdle <= 0 {
		o.MaxIdle = 5
	}
	if o.MaxLifetime <= 0 {
		o.MaxLifetime = 30 * time.Minute
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", driver, err)
	}
	return db, nil
}
