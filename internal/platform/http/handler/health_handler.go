// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds each dependency ping.
const readyTimeout = 2 * time.Second

// Check は依存サービス1つ分の疎通確認です。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health は /healthz（liveness）を処理します。依存サービスには触れません。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Ready は /readyz を処理します。すべてのCheckが成功した場合のみ200を返します。
func Ready(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		results := make(map[string]string, len(checks))
		status := http.StatusOK
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			err := chk.Ping(ctx)
			cancel()
			if err != nil {
				slog.Warn("readiness check failed", "check", chk.Name, "error", err)
				results[chk.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[chk.Name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		c.JSON(status, gin.H{"status": overall, "checks": results})
	}
}
