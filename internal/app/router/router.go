// Package router はginエンジンを組み立て、全ルートを登録します。
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "linker/internal/feature/auth/transport/handler"
	"linker/internal/feature/auth/transport/middleware"
	linkshandler "linker/internal/feature/links/transport/handler"
	profilehandler "linker/internal/feature/profile/transport/handler"
	"linker/internal/platform/http/handler"
	"linker/internal/platform/metrics"
	"linker/internal/shared/ratelimiter"
)

// DefaultRequestTimeout bounds every DB and object-store call made while
// serving a request.
const DefaultRequestTimeout = 15 * time.Second

// Config collects everything the router needs.
type Config struct {
	Auth     *authhandler.AuthHandler
	Profile  *profilehandler.ProfileHandler
	Links    *linkshandler.LinksHandler
	Sessions middleware.SessionValidator
	// Checks are the dependencies pinged by /readyz.
	Checks []handler.Check
	// AuthLimiter throttles /signup and /login per client IP; nil disables it.
	AuthLimiter *ratelimiter.RateLimiter

	CORSOrigins    []string
	RequestTimeout time.Duration
}

// requestTimeout はリクエストのcontextに期限を付けます。
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// NewRouter builds the engine.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())
	// クッキーを使うため、許可するオリジンを明示した場合のみCORSを有効にする
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(cfg.Checks...))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/", requestTimeout(cfg.RequestTimeout))
	throttle := ratelimiter.Middleware(cfg.AuthLimiter)
	// 新規ユーザー登録
	api.POST("/signup", throttle, cfg.Auth.Signup)
	// ログイン（セッション発行）
	api.POST("/login", throttle, cfg.Auth.Login)
	// 公開プロフィールのリンク一覧
	api.GET("/users/:id/links", cfg.Links.ListPublic)

	// 認証必須のルート
	// → 有効なセッション資格情報（BearerまたはCookie）が必要になる
	auth := api.Group("/", middleware.AuthRequired(cfg.Sessions))
	{
		auth.POST("/logout", cfg.Auth.Logout)
		auth.POST("/logout/all", cfg.Auth.LogoutAll)
		auth.GET("/me", cfg.Profile.GetProfile)
		auth.PATCH("/me", cfg.Profile.UpdateBio)
		auth.PUT("/me/picture", cfg.Profile.UploadPicture)
		auth.GET("/me/picture", cfg.Profile.GetPicture)
		auth.PUT("/me/banner", cfg.Profile.UploadBanner)
		auth.GET("/me/banner", cfg.Profile.GetBanner)
		auth.POST("/me/links", cfg.Links.Create)
		auth.GET("/me/links", cfg.Links.ListMine)
		auth.DELETE("/me/links/:id", cfg.Links.Delete)
	}

	return r
}
