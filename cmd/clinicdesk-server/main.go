package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/document"
	"github.com/clinicdesk/clinicdesk/internal/domain/protocol"
	"github.com/clinicdesk/clinicdesk/internal/domain/registry"
	"github.com/clinicdesk/clinicdesk/internal/domain/settings"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/backup"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/internal/platform/storage"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicdesk-server",
		Short: "Clinical encounter and prescription API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(snapshotCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Ensure the storage schema exists (postgres backend only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StorageBackend != config.BackendPostgres {
				fmt.Printf("storage backend is %q; nothing to migrate\n", cfg.StorageBackend)
				return nil
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := storage.NewPGStore(pool).EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Println("storage schema is up to date")
			return nil
		},
	}
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Write a one-off backup of the clinic data",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			gw, cleanup, _, err := newGateway(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			path, err := backup.NewScheduler(gw, cfg.BackupDir, 0, logger).Snapshot(ctx)
			if err != nil {
				return err
			}
			fmt.Println("backup written to", path)
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// newGateway builds the configured persistence backend. The returned cleanup
// closes whatever connections the backend holds; the pool is non-nil only
// for postgres so the DB health endpoint can be wired.
func newGateway(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Gateway, func(), *pgxpool.Pool, error) {
	noop := func() {}
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), noop, nil, nil

	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("file store: %w", err)
		}
		return fs, noop, nil, nil

	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := storage.NewPGStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info().Msg("connected to postgres")
		return store, pool.Close, pool, nil

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		logger.Info().Msg("connected to mongodb")
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		return storage.NewMongoStore(client, cfg.MongoDB), cleanup, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	gateway, cleanup, pool, err := newGateway(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise storage")
	}
	defer cleanup()
	logger.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	// Core services
	reg := registry.NewService(ctx, gateway, logger)
	session, err := visit.NewSession(ctx, reg, gateway, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to restore visit collection")
	}
	clinicSettings := settings.NewService(ctx, gateway, logger)
	matcher := protocol.NewMatcher(protocol.DefaultTable(),
		time.Duration(cfg.SuggestDelayMS)*time.Millisecond, logger)
	generator, err := document.NewGenerator(session, clinicSettings)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse document template")
	}

	// Scheduled backups
	backups := backup.NewScheduler(gateway, cfg.BackupDir,
		time.Duration(cfg.BackupEveryHrs)*time.Hour, logger)
	if err := backups.Start(); err != nil {
		logger.Warn().Err(err).Msg("backup scheduler not started")
	}
	defer backups.Stop()

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"backend": cfg.StorageBackend,
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", metrics.Handler())
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	auth.NewHandler(cfg.AuthSecret, cfg.DoctorPIN).RegisterRoutes(e)

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(cfg.AuthSecret))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	registry.NewHandler(reg).RegisterRoutes(apiV1)
	visit.NewHandler(session).RegisterRoutes(apiV1)
	protocol.NewHandler(matcher, session).RegisterRoutes(apiV1)
	settings.NewHandler(clinicSettings).RegisterRoutes(apiV1)
	document.NewHandler(generator).RegisterRoutes(apiV1)

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
