// Package ratelimiter は固定ウィンドウ方式のキー別レート制限を提供します。
package ratelimiter

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"linker/internal/api"
)

// window はキー1つ分のカウンターです。
type window struct {
	count     int
	lastReset time.Time
}

// RateLimiter は、ログイン試行などの操作の頻度をキーごとに制限します。
type RateLimiter struct {
	limit    int           // interval あたりの上限
	interval time.Duration // どの単位でリセットするか

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		windows:  map[string]*window{},
		now:      time.Now,
	}
}

// Allow はkeyの試行を1回数え、上限内ならtrueを返します。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.lastReset) >= rl.interval {
		rl.sweep(now)
		w = &window{lastReset: now}
		rl.windows[key] = w
	}

	w.count++
	return w.count <= rl.limit
}

// sweep は期限切れのウィンドウを捨ててメモリを抑えます。
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.windows {
		if now.Sub(w.lastReset) >= rl.interval {
			delete(rl.windows, k)
		}
	}
}

// Middleware はクライアントIPごとに制限し、超過時は429を返します。
// limitが0以下なら何もしません。
func Middleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.limit <= 0 {
			c.Next()
			return
		}
		if !rl.Allow(c.ClientIP()) {
			slog.Warn("[RATE LIMIT] too many requests", "path", c.FullPath(), "remote_addr", c.ClientIP())
			c.Header("Retry-After", retryAfter(rl.interval))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
