// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linker/internal/api"
	"linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/auth/transport/http/dto"
	"linker/internal/feature/auth/usecase"
	jwtmw "linker/internal/platform/jwt"
	"linker/internal/platform/metrics"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は新規ユーザーを登録します。
	Signup(ctx context.Context, name, email, password string) (*entity.User, error)
	// Login はユーザーを認証し、成功時にセッションを発行します。
	Login(ctx context.Context, email, password string, meta entity.SessionMeta) (*entity.IssuedSession, error)
	// Logout は資格情報のセッションを失効させます。
	Logout(ctx context.Context, token string) error
	// LogoutAll はユーザーの全セッションを失効させます。
	LogoutAll(ctx context.Context, userID uint) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth         AuthUsecase
	cookieSecure bool
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// cookieSecure はローカル開発（HTTP）でのみfalseにします。
func NewAuthHandler(auth AuthUsecase, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(jwtmw.CookieName, token, maxAge, "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(jwtmw.CookieName, "", -1, "/", "", h.cookieSecure, true)
}

// unavailable は基盤障害を503、それ以外を500として返します。
func unavailable(c *gin.Context, op string, err error) {
	slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
	if errors.Is(err, usecase.ErrDatabaseUnavailable) {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "service unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - メール重複時は409を返却
// - 成功時は201と新しいユーザーIDを返却
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrValidation):
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		slog.Warn("signup failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "email already registered"})
		return
	default:
		unavailable(c, "signup", err)
		return
	}

	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.CreatedResponse{ID: user.ID})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// 成功時はトークンをJSONで返し、同じ値をHttpOnlyクッキーにも設定します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	meta := entity.SessionMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
	issued, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, meta)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			metrics.ObserveLogin(metrics.LoginFailure)
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("login failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid email or password"})
			return
		}
		metrics.ObserveLogin(metrics.LoginError)
		unavailable(c, "login", err)
		return
	}

	metrics.ObserveLogin(metrics.LoginSuccess)
	slog.Info("user login successful", "user_id", issued.UserID, "remote_addr", c.ClientIP())
	h.setSessionCookie(c, issued.Token, issued.ExpiresAt)
	c.JSON(http.StatusOK, api.TokenResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt})
}

// Logout は現在のセッションを失効させ、クッキーを削除します。
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), jwtmw.Token(c)); err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}
		unavailable(c, "logout", err)
		return
	}
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

// LogoutAll はユーザーの全セッションを失効させます。
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	if err := h.auth.LogoutAll(c.Request.Context(), userID); err != nil {
		unavailable(c, "logout all", err)
		return
	}
	slog.Info("all sessions revoked", "user_id", userID, "remote_addr", c.ClientIP())
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}
