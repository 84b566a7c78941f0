// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"linker/internal/app/router"
	authadapters "linker/internal/feature/auth/adapters"
	authhandler "linker/internal/feature/auth/transport/handler"
	authusecase "linker/internal/feature/auth/usecase"
	linksadapters "linker/internal/feature/links/adapters"
	linkshandler "linker/internal/feature/links/transport/handler"
	linksusecase "linker/internal/feature/links/usecase"
	profilehandler "linker/internal/feature/profile/transport/handler"
	profileusecase "linker/internal/feature/profile/usecase"
	"linker/internal/platform/cache"
	"linker/internal/platform/db"
	"linker/internal/platform/http/handler"
	jwtmw "linker/internal/platform/jwt"
	"linker/internal/platform/password"
	"linker/internal/shared/ratelimiter"
)

// Deps are the already-connected infrastructure and the tunables of the app.
// Redis is optional; without it sessions live in the database and profile
// reads are not cached.
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Objects profileusecase.ObjectStore

	JWTSecret          string
	SessionTTL         time.Duration
	MaxSessionsPerUser int
	BcryptCost         int
	ProfileCacheTTL    time.Duration

	// AuthRateLimit is the number of /signup and /login requests allowed per
	// client IP in AuthRateWindow; 0 disables throttling.
	AuthRateLimit  int
	AuthRateWindow time.Duration

	CookieSecure   bool
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewApp wires repositories, use cases and handlers into a gin engine.
func NewApp(d Deps) (*gin.Engine, error) {
	if d.DB == nil || d.Objects == nil {
		return nil, fmt.Errorf("di: database and object store are required")
	}

	hasher, err := password.NewBcryptHasher(d.BcryptCost)
	if err != nil {
		return nil, err
	}
	generator, err := jwtmw.NewGenerator(d.JWTSecret)
	if err != nil {
		return nil, err
	}
	parser, err := jwtmw.NewParser(d.JWTSecret)
	if err != nil {
		return nil, err
	}

	// Repository
	userRepo := authadapters.NewUserPostgres(d.DB)
	sessionRepo := NewSessionRepository(d.Redis, d.DB)
	linkRepo := linksadapters.NewLinkPostgres(d.DB)
	// Redisキャッシュでラップ
	profileUsers := cache.NewCachingUserRepository(d.Redis, d.ProfileCacheTTL, userRepo, "profile")

	// Usecase
	sessions := authusecase.NewSessionAuthority(sessionRepo, generator, parser, d.SessionTTL, d.MaxSessionsPerUser)
	authUC := authusecase.NewAuthUsecase(userRepo, hasher, sessions)
	profileUC := profileusecase.NewProfileUsecase(profileUsers, d.Objects)
	linksUC := linksusecase.NewLinksUsecase(linkRepo, profileUsers)

	// Handler
	authH := authhandler.NewAuthHandler(authUC, d.CookieSecure)
	profileH := profilehandler.NewProfileHandler(profileUC)
	linksH := linkshandler.NewLinksHandler(linksUC)

	checks := []handler.Check{{
		Name: "database",
		Ping: func(ctx context.Context) error { return db.Ping(ctx, d.DB) },
	}}
	if d.Redis != nil {
		checks = append(checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() },
		})
	}

	return router.NewRouter(router.Config{
		Auth:           authH,
		Profile:        profileH,
		Links:          linksH,
		Sessions:       sessions,
		Checks:         checks,
		AuthLimiter:    ratelimiter.NewRateLimiter(d.AuthRateLimit, d.AuthRateWindow),
		CORSOrigins:    d.CORSOrigins,
		RequestTimeout: d.RequestTimeout,
	}), nil
}
