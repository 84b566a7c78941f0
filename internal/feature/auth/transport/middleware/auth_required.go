// Package middleware はセッション認証のginミドルウェアを提供します。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"linker/internal/api"
	"linker/internal/feature/auth/usecase"
	jwtmw "linker/internal/platform/jwt"
)

// SessionValidator resolves a credential to the user id behind it.
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（middleware）が定義します。
type SessionValidator interface {
	Validate(ctx context.Context, token string) (uint, error)
}

// AuthRequired rejects the request with 401 before any handler runs unless it
// carries a live session credential. On success the user id and the raw
// credential are stored in the gin context.
func AuthRequired(v SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := jwtmw.TokenFromRequest(c)

		// トークンが空でも検証を通し、応答時間を揃える
		userID, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
				return
			}
			slog.Error("session validation failed", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "service unavailable"})
			return
		}

		c.Set(jwtmw.ContextUserID, userID)
		c.Set(jwtmw.ContextToken, token)
		c.Next()
	}
}
