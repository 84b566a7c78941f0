// Package db はPostgreSQLへのGORM接続とスキーマ反映を提供します。
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	authadapters "linker/internal/feature/auth/adapters"
	"linker/internal/feature/auth/domain/entity"
	linkentity "linker/internal/feature/links/domain/entity"
)

// retryInterval は接続リトライの待ち時間です。
const retryInterval = 3 * time.Second

// Config holds connection settings. InstanceName, when set, selects the
// Cloud SQL unix socket instead of Host/Port.
type Config struct {
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	SSLMode      string
	InstanceName string
}

// Opener opens a gorm connection for a DSN. Replaced in tests.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN はpgx形式（key=value）のDSNを組み立てます。
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host, port = "/cloudsql/"+cfg.InstanceName, ""
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		host, cfg.User, cfg.Password, cfg.Name, sslmode)
	if port != "" {
		dsn += " port=" + port
	}
	return dsn
}

// OpenPostgres opens a pool with duplicate-key errors translated to
// gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open connects to PostgreSQL, retrying for up to timeout.
func Open(cfg Config, timeout time.Duration) (*gorm.DB, error) {
	return ConnectWithRetry(BuildDSN(cfg), timeout, OpenPostgres)
}

// Migrate creates or updates the users, sessions and links tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.User{}, &authadapters.SessionModel{}, &linkentity.Link{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping は接続プールの疎通を確認します（readinessチェック用）。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
