package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"polling-backend/config"
	"polling-backend/database"
	"polling-backend/lock"
	"polling-backend/logger"
	"polling-backend/migrations"
	"polling-backend/ratelimit"
	"polling-backend/repository"
	"polling-backend/routes"
	"polling-backend/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", slog.Any("error", err))
		}
	}()

	if err := migrations.Apply(db, log); err != nil {
		return err
	}

	rdb, err := database.OpenRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("failed to close redis", slog.Any("error", err))
			}
		}()
	}

	var locker lock.Locker = lock.NewLocal()
	if rdb != nil {
		locker = lock.NewRedis(rdb, log)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		if rdb != nil {
			limiter = ratelimit.NewRedis(rdb, "ratelimit:", cfg.RateLimit.Rate, cfg.RateLimit.Burst)
		} else {
			limiter = ratelimit.NewLocal(cfg.RateLimit.Rate, cfg.RateLimit.Burst)
		}
		log.Info("rate limiting enabled",
			slog.Float64("rps", cfg.RateLimit.Rate),
			slog.Int("burst", cfg.RateLimit.Burst),
		)
	}

	if cfg.ResetSecret == "" {
		log.Warn("RESET_PASSWORD not set, /api/reset is disabled")
	}

	polls := service.NewPollService(
		repository.NewGormPollRepository(db),
		locker,
		service.Settings{ResetSecret: cfg.ResetSecret, Seed: cfg.Seed},
		log,
	)

	if cfg.SeedOnStart {
		if err := polls.SeedIfEmpty(ctx); err != nil {
			return err
		}
	}

	router := routes.SetupRouter(routes.Deps{
		Polls:          polls,
		DB:             db,
		Limiter:        limiter,
		AllowOrigins:   cfg.HTTP.AllowOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		ShowErrors:     cfg.IsDevelopment(),
		Version:        version,
		Log:            log,
	})

	srv, errs := routes.StartServer(fmt.Sprintf(":%d", cfg.HTTP.Port), router, log)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.HTTP.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
