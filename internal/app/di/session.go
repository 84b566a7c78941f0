package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "linker/internal/feature/auth/adapters"
	"linker/internal/feature/auth/usecase"
	"linker/internal/platform/session"
)

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to PostgreSQL.
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, session.DefaultPrefix)
	}
	return authadapters.NewSessionPostgres(db)
}
