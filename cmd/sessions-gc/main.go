// sessions-gc はデータベースに保存された期限切れ・失効済みセッションを削除します。
// Redisに保存されたセッションはTTLで消えるため対象外です。
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	authadapters "linker/internal/feature/auth/adapters"
	"linker/internal/platform/config"
	"linker/internal/platform/db"
)

const gcTimeout = 5 * time.Minute

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	gdb, err := db.Open(cfg.DB, cfg.DBConnTimeout)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), gcTimeout)
	defer cancel()

	n, err := authadapters.NewSessionPostgres(gdb).DeleteExpired(ctx)
	if err != nil {
		slog.Error("failed to delete expired sessions", "error", err)
		os.Exit(1)
	}
	slog.Info("expired sessions deleted", "count", n)
}
