// cmd/migrate/main.go
//
// Schema migrations for the SQL publication backend.
//
// Usage
// -----
//
//	migrate up            apply every pending migration
//	migrate down [n]      roll back n migrations (default 1)
//	migrate status        print applied and pending versions
//
// The driver and DSN come from the same config as cmd/web (`database`
// section), so Vault references work here too.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/config"
	"github.com/yanizio/siteforge/internal/database"
	"github.com/yanizio/siteforge/internal/migrations"
	"github.com/yanizio/siteforge/internal/vault"
)

const usage = "usage: migrate up | down [n] | status"

func main() {
	logger := zap.Must(zap.NewDevelopment())
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		zap.S().Fatalw("migrate failed", "err", err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	var sec config.SecretResolver
	if config.NeedsSecrets() {
		vc, err := vault.New(ctx)
		if err != nil {
			return err
		}
		sec = vc
	}
	cfg, err := config.Load(ctx, sec)
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is not set")
	}

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	switch args[0] {
	case "up":
		return migrations.Up(ctx, db)
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil || steps < 1 {
				return errors.New("down: step count must be a positive integer")
			}
		}
		return migrations.Down(ctx, db, steps)
	case "status":
		return migrations.Status(ctx, db)
	default:
		return errors.New(usage)
	}
}
