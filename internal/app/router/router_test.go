package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authhandler "linker/internal/feature/auth/transport/handler"
	"linker/internal/feature/auth/usecase"
	linkshandler "linker/internal/feature/links/transport/handler"
	profilehandler "linker/internal/feature/profile/transport/handler"
	"linker/internal/platform/http/handler"
	"linker/internal/shared/ratelimiter"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type rejectAll struct{}

func (rejectAll) Validate(ctx context.Context, token string) (uint, error) {
	return 0, usecase.ErrUnauthorized
}

func newTestRouter(origins []string, checks ...handler.Check) *gin.Engine {
	return NewRouter(Config{
		Auth:        authhandler.NewAuthHandler(nil, true),
		Profile:     profilehandler.NewProfileHandler(nil),
		Links:       linkshandler.NewLinksHandler(nil),
		Sessions:    rejectAll{},
		Checks:      checks,
		CORSOrigins: origins,
	})
}

func TestNewRouter_Routes(t *testing.T) {
	r := newTestRouter(nil)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK},
		{http.MethodOptions, "/healthz", http.StatusNoContent},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/me", http.StatusUnauthorized},
		{http.MethodPut, "/me/picture", http.StatusUnauthorized},
		{http.MethodGet, "/me/picture", http.StatusUnauthorized},
		{http.MethodPatch, "/me", http.StatusUnauthorized},
		{http.MethodPut, "/me/banner", http.StatusUnauthorized},
		{http.MethodGet, "/me/banner", http.StatusUnauthorized},
		{http.MethodPost, "/me/links", http.StatusUnauthorized},
		{http.MethodGet, "/me/links", http.StatusUnauthorized},
		{http.MethodDelete, "/me/links/1", http.StatusUnauthorized},
		// 公開ルートなのでセッション不要、IDの検証まで到達する
		{http.MethodGet, "/users/abc/links", http.StatusBadRequest},
		{http.MethodPost, "/logout", http.StatusUnauthorized},
		{http.MethodPost, "/logout/all", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestNewRouter_ReadyReportsFailingCheck(t *testing.T) {
	r := newTestRouter(nil, handler.Check{
		Name: "database",
		Ping: func(ctx context.Context) error { return context.DeadlineExceeded },
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewRouter_CORS(t *testing.T) {
	r := newTestRouter([]string{"https://app.example"})

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/me/links/1", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_ThrottlesAuthEndpoints(t *testing.T) {
	r := NewRouter(Config{
		Auth:        authhandler.NewAuthHandler(nil, true),
		Profile:     profilehandler.NewProfileHandler(nil),
		Links:       linkshandler.NewLinksHandler(nil),
		Sessions:    rejectAll{},
		AuthLimiter: ratelimiter.NewRateLimiter(1, time.Minute),
	})

	// 1回目はバリデーションで400、2回目は制限で429
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/signup", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/", requestTimeout(time.Second), func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
