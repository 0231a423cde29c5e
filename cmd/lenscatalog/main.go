// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the eyewear catalog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support. The migrate and
// create-admin subcommands run one-off maintenance tasks.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"lenscatalog/internal/admin"
	"lenscatalog/internal/cache"
	"lenscatalog/internal/catalog"
	"lenscatalog/internal/config"
	"lenscatalog/internal/dashboard"
	"lenscatalog/internal/database"
	"lenscatalog/internal/handlers"
	"lenscatalog/internal/media"
	"lenscatalog/internal/middleware"
	"lenscatalog/internal/router"
	"lenscatalog/internal/session"
	"lenscatalog/internal/storage"
	"lenscatalog/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cmd := &cli.Command{
		Name:   "lenscatalog",
		Usage:  "Eyewear catalog API server",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "create-admin",
				Usage: "Create an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "display-name", Value: "Admin"},
				},
				Action: createAdmin,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger. JSON in
// production, text everywhere else.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())
	return cfg, nil
}

// openDB connects to PostgreSQL and applies pending migrations.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, _ *cli.Command) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("migrations applied")
	return nil
}

func createAdmin(ctx context.Context, c *cli.Command) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	username, password := c.String("username"), c.String("password")
	if len(username) < 3 || len(username) > 32 {
		return errors.New("username must be 3 to 32 characters")
	}
	if len(password) < 8 || len(password) > 100 {
		return errors.New("password must be 8 to 100 characters")
	}

	user, err := store.NewUserStore(db).Create(ctx, username, password, c.String("display-name"))
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return err
	}
	slog.Info("admin created", "username", user.Username, "id", user.ID)
	return nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			return err
		}
	}

	// Valkey backs sessions and the catalog cache.
	valkeyClient, err := cache.ConnectValkey(ctx, cache.ValkeyOptions{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	categoryStore := store.NewCategoryStore(db)
	productStore := store.NewProductStore(db)
	userStore := store.NewUserStore(db)

	// Optional pieces are held in interface-typed variables so an absent
	// dependency is a true nil.
	var catalogCache catalog.Cache
	if cfg.CatalogCacheTTL > 0 {
		catalogCache = cache.NewCatalogCache(valkeyClient, cfg.CatalogCacheTTL)
	} else {
		slog.Warn("catalog cache disabled")
	}

	var (
		objectGetter  handlers.ObjectGetter
		objectRemover admin.ObjectRemover
		uploader      handlers.ImageUploader
	)
	storageClient, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if storageClient != nil {
		up, err := media.NewUploader(storageClient)
		if err != nil {
			return err
		}
		objectGetter, objectRemover, uploader = storageClient, storageClient, up
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	catalogSvc := catalog.New(categoryStore, productStore, catalogCache)
	adminSvc := admin.New(categoryStore, productStore, objectRemover, catalogSvc)
	statsSvc := dashboard.New(productStore, categoryStore)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "lenscatalog"),
	)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)

	r := router.New(router.Deps{
		Sessions: sessionStore,
		Public: handlers.NewPublic(catalogSvc, objectGetter, func(ctx context.Context) error {
			return database.Check(ctx, db)
		}, config.RequiredEnv),
		Auth:          handlers.NewAuth(sessionStore, userStore),
		Admin:         handlers.NewAdmin(adminSvc, uploader, statsSvc),
		Metrics:       middleware.NewMetrics(reg),
		Gatherer:      reg,
		LoginLimiter:  loginLimiter,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: secureCookies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for SIGINT or SIGTERM, then drain connections.
	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
		"login-limiter": func(context.Context) error {
			loginLimiter.Stop()
			return nil
		},
	})
	if code := <-wait; code != 0 {
		return fmt.Errorf("shutdown finished with code %d", code)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// Compile-time checks that the concrete types satisfy the interfaces
// they are wired through.
var (
	_ handlers.SessionManager  = (*session.Store)(nil)
	_ middleware.SessionGetter = (*session.Store)(nil)
	_ handlers.UserStore       = (*store.UserStore)(nil)
	_ handlers.ObjectGetter    = (*storage.Client)(nil)
	_ admin.ObjectRemover      = (*storage.Client)(nil)
	_ media.ObjectPutter       = (*storage.Client)(nil)
	_ catalog.Cache            = (*cache.CatalogCache)(nil)
)
