// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/karanbisht-123/katchincms-go/internal/asset"
	"github.com/karanbisht-123/katchincms-go/internal/cache"
	"github.com/karanbisht-123/katchincms-go/internal/config"
	"github.com/karanbisht-123/katchincms-go/internal/geoip"
	"github.com/karanbisht-123/katchincms-go/internal/handler/api"
	"github.com/karanbisht-123/katchincms-go/internal/logging"
	"github.com/karanbisht-123/katchincms-go/internal/mailer"
	"github.com/karanbisht-123/katchincms-go/internal/middleware"
	"github.com/karanbisht-123/katchincms-go/internal/scheduler"
	"github.com/karanbisht-123/katchincms-go/internal/service"
	"github.com/karanbisht-123/katchincms-go/internal/store"
	"github.com/karanbisht-123/katchincms-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "KatchinCMS - Content Management API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_DB_PATH             SQLite database path (default: ./data/katchincms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_BASE_URL            Public base URL for uploaded asset links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_UPLOADS_DIR         Uploads directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_REDIS_URL           Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_SMTP_HOST           SMTP host for contact notifications (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KATCHIN_GEOIP_DB_PATH       GeoLite2 country database path (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/karanbisht-123/katchincms-go\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("katchincms %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Initialize cache
	appCache := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	// Initialize asset storage
	assets, err := asset.NewLocalStore(cfg.UploadsDir, cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("initializing asset storage: %w", err)
	}
	slog.Info("asset storage initialized", "dir", cfg.UploadsDir)

	// Initialize GeoIP lookup
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("GeoIP lookup disabled", "error", err)
		} else {
			slog.Info("GeoIP lookup initialized", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() {
		if err := geo.Close(); err != nil {
			slog.Error("error closing GeoIP database", "error", err)
		}
	}()

	// Initialize mail delivery
	var sender mailer.Sender
	if cfg.MailEnabled() {
		sender = &mailer.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}
	}
	mail := mailer.New(db, sender, logger, mailer.Config{
		From:              cfg.EmailFrom,
		NotificationEmail: cfg.NotificationEmail,
	})
	mail.Start(ctx)
	defer mail.Stop()
	if mail.Enabled() {
		slog.Info("mail delivery enabled", "host", cfg.SMTPHost)
	} else {
		slog.Info("mail delivery disabled")
	}

	// Initialize services
	articleService := service.NewArticleService(db, appCache, assets, logger)
	categoryService := service.NewCategoryService(db, logger)
	contactService := service.NewContactService(db, mail, geo, logger)

	// Initialize and start scheduler
	sched := scheduler.New(logger)
	if err := sched.AddJob("stats-warm", "*/5 * * * *", func() error {
		return articleService.WarmStats(context.Background())
	}); err != nil {
		return fmt.Errorf("registering stats warm job: %w", err)
	}
	if mail.Enabled() {
		if err := sched.AddJob("mail-retry", "*/10 * * * *", func() error {
			return mail.RetryPending(context.Background())
		}); err != nil {
			return fmt.Errorf("registering mail retry job: %w", err)
		}
	}
	if geo.IsEnabled() {
		if err := sched.AddJob("geoip-reload", "0 4 * * *", geo.Reload); err != nil {
			return fmt.Errorf("registering GeoIP reload job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	apiHandler := api.NewHandler(cfg, db, articleService, categoryService, contactService, assets, logger, versionInfo)

	// Create router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Identity)

	// Health check routes
	r.Get("/health", apiHandler.Health)
	r.Get("/health/live", apiHandler.HealthLive)
	r.Get("/health/ready", apiHandler.HealthReady)

	// REST API v1 routes with global rate limiting
	apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Mount("/", apiHandler.Routes())
	})
	slog.Info("REST API v1 mounted at /api/v1")

	// Serve uploaded images, cached for a week
	uploadsHandler := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=604800")
		uploadsHandler.ServeHTTP(w, req)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
