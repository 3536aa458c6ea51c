// cmd/web/main.go
//
// SiteForge – published-site HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Bootstrap console logger so config errors are visible.
//
//  2. Dial Vault only when the raw config holds `vault:` references, then
//     load and validate config.
//
//  3. Start the daily rotating logger (tees to console in a TTY).
//
//  4. Build the publication backend: SQL (mysql or pgx) or the REST
//     managed store.
//
//  5. Build the response cache: ristretto L1, plus Redis L2 when
//     configured.
//
//  6. Load the theme, the renderer, and the domain classifier.
//
//  7. Optional extras: hosting-provider client for the admin API, NATS
//     publish-event subscriber for cache invalidation.
//
//  8. Serve until SIGINT/SIGTERM, then shut down gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/siteforge/internal/admin"
	"github.com/yanizio/siteforge/internal/cache"
	"github.com/yanizio/siteforge/internal/config"
	"github.com/yanizio/siteforge/internal/database"
	"github.com/yanizio/siteforge/internal/events"
	"github.com/yanizio/siteforge/internal/logger"
	"github.com/yanizio/siteforge/internal/postgrest"
	"github.com/yanizio/siteforge/internal/provider"
	"github.com/yanizio/siteforge/internal/publication"
	"github.com/yanizio/siteforge/internal/requestinfo"
	"github.com/yanizio/siteforge/internal/routing"
	"github.com/yanizio/siteforge/internal/server"
	"github.com/yanizio/siteforge/internal/site"
	"github.com/yanizio/siteforge/internal/theme"
	"github.com/yanizio/siteforge/internal/vault"
	"github.com/yanizio/siteforge/internal/view"
	"github.com/yanizio/siteforge/internal/web"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	logger.Bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Fatalw("siteforge stopped", "err", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config (and Vault, when referenced) ─────────────────────────
	//
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

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	log, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Level: cfg.Log.Level,
		Tee:   cfg.Log.Tee || runningInTTY(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
		log.Warnw("geoip disabled", "err", err)
	}
	defer requestinfo.CloseGeo()

	//
	// ── 3.  Publication backend ─────────────────────────────────────────
	//
	var (
		backend publication.Backend
		ready   func(context.Context) error
	)
	switch cfg.Backend.Kind {
	case "rest":
		pc, err := postgrest.New(postgrest.Options{
			BaseURL:  cfg.Backend.REST.URL,
			APIKey:   cfg.Backend.REST.APIKey,
			Timeout:  cfg.Backend.REST.Timeout,
			RetryMax: cfg.Backend.REST.RetryMax,
		})
		if err != nil {
			return err
		}
		backend = pc
	default:
		db, err := database.OpenWithOptions(ctx, cfg.Database.Driver, cfg.Database.DSN, database.Options{
			MaxOpen: cfg.Database.MaxOpen,
			MaxIdle: cfg.Database.MaxIdle,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		backend = site.NewRepository(db)
		ready = db.PingContext
	}
	log.Infow("publication backend online", "kind", cfg.Backend.Kind)

	//
	// ── 4.  Response cache ──────────────────────────────────────────────
	//
	l1, err := cache.NewLocal(cfg.Cache.L1MaxCost)
	if err != nil {
		return err
	}
	defer l1.Close()

	var store cache.Cache = l1
	if cfg.Cache.Redis.Addr != "" {
		l2, err := cache.ConnectRedis(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			return err
		}
		defer l2.Close()
		store = cache.NewTiered(l1, l2, cfg.Cache.TTL)
		log.Infow("redis cache tier online", "addr", cfg.Cache.Redis.Addr)
	}
	acc := publication.New(backend, store, cfg.Cache.TTL)

	//
	// ── 5.  Theme, renderer, classifier ─────────────────────────────────
	//
	themeDir := cfg.Theme.Dir
	if themeDir != "" && !filepath.IsAbs(themeDir) {
		themeDir = filepath.Join(cfg.Paths.Root, themeDir)
	}
	th, err := (&theme.Manager{BaseDir: themeDir}).Load(cfg.Theme.Name)
	if err != nil {
		return err
	}
	classifier := routing.NewClassifier(cfg.HTTP.AppHosts, cfg.HTTP.RootDomains)

	//
	// ── 6.  Admin API and publish events ────────────────────────────────
	//
	var adder admin.DomainAdder
	pc, err := provider.New(provider.Options{
		APIURL:    cfg.Provider.APIURL,
		Token:     cfg.Provider.Token,
		ProjectID: cfg.Provider.ProjectID,
		TeamID:    cfg.Provider.TeamID,
		Timeout:   cfg.Provider.Timeout,
		RetryMax:  2,
	})
	switch {
	case err == nil:
		adder = pc
	case errors.Is(err, provider.ErrNotConfigured):
		log.Infow("hosting provider not configured; POST /api/domains will answer 500")
	default:
		return err
	}

	if cfg.NATS.URL != "" {
		sub, err := events.Subscribe(ctx, cfg.NATS.URL, cfg.NATS.Subject, acc)
		if err != nil {
			return err
		}
		defer sub.Close()
	}

	//
	// ── 7.  Serve ───────────────────────────────────────────────────────
	//
	handler := web.NewRouter(web.Options{
		Sites:      acc,
		Renderer:   view.New(th),
		Classifier: classifier,
		Admin:      admin.New(cfg.Admin.TokenHash, adder, acc),
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
		Ready:      ready,
	})

	start := time.Now()
	err = server.Run(ctx, server.New(cfg.HTTP.ListenAddr, handler))
	log.Infow("http server stopped", "uptime", time.Since(start).Round(time.Second).String())
	return err
}
