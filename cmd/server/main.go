package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"linker/internal/app/di"
	"linker/internal/platform/config"
	"linker/internal/platform/db"
	"linker/internal/platform/redis"
	"linker/internal/platform/storage"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	gdb, err := db.Open(cfg.DB, cfg.DBConnTimeout)
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.RunMigrations {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		slog.Info("database migrated")
	}

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.RedisEnabled() {
		if tmp, err := redis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("redis unavailable; sessions fall back to the database", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close redis client", "error", err)
				}
			}()
		}
	}

	// Object storage
	objects, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	// 起動時に作れなくても、アップロード時に再試行される
	if err := objects.EnsureBucket(ctx); err != nil {
		slog.Warn("bucket not ready at startup", "bucket", objects.Bucket(), "error", err)
	}

	router, err := di.NewApp(di.Deps{
		DB:                 gdb,
		Redis:              rdb,
		Objects:            objects,
		JWTSecret:          cfg.JWTSecret,
		SessionTTL:         cfg.SessionTTL,
		MaxSessionsPerUser: cfg.MaxSessionsPerUser,
		BcryptCost:         cfg.BcryptCost,
		ProfileCacheTTL:    cfg.ProfileCacheTTL,
		AuthRateLimit:      cfg.AuthRateLimit,
		AuthRateWindow:     cfg.AuthRateWindow,
		CookieSecure:       cfg.CookieSecure,
		CORSOrigins:        cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
