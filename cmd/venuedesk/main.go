package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuedesk/venuedesk/internal/access"
	"github.com/venuedesk/venuedesk/internal/app"
	"github.com/venuedesk/venuedesk/internal/featuregate"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/platform/cache"
	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/profiles"
	"github.com/venuedesk/venuedesk/internal/roles"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// A missing cache only disables flag caching, it never blocks startup.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, flag cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	flagRepo := featuregate.NewRepository(pool)
	flagService := featuregate.NewService(flagRepo, redisClient, cfg.FlagCacheTTL, logger)

	roleRepo := roles.NewRepository(pool)
	roleStore := roles.NewStore(roleRepo, logger, metrics)
	roleSessions := roles.NewSessionManager(roleStore, flagService, cfg.RoleAutosaveDelay, logger)

	profileRepo := profiles.NewRepository(pool)
	profileService := profiles.NewService(profileRepo, logger, metrics)

	accessService := access.NewService(roleStore, flagService, logger, metrics)

	router := app.NewRouter(app.RouterParams{
		Config:          cfg,
		RolesHandler:    roles.NewHandler(logger, roleStore, roleSessions),
		ProfilesHandler: profiles.NewHandler(logger, profileService),
		AccessHandler:   access.NewHandler(logger, accessService, profileService),
		Metrics:         metrics,
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{
			Logger:   logger,
			Config:   cfg,
			Profiles: profileService,
			Metrics:  metrics,
		}),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
