package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neovuln/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewMiddlewareManager(nil, nil, &config.SecurityConfig{RateLimit: cfg})
	r := gin.New()
	r.Use(m.GinRateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r *gin.Engine, path, ip string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestGinRateLimitMiddleware(t *testing.T) {
	r := newRateLimitedRouter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             2,
		SkipPaths:         []string{"/api/health"},
	})

	assert.Equal(t, http.StatusOK, get(r, "/ping", "192.0.2.1"))
	assert.Equal(t, http.StatusOK, get(r, "/ping", "192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/ping", "192.0.2.1"))

	// 其他客户端有独立的桶
	assert.Equal(t, http.StatusOK, get(r, "/ping", "198.51.100.7"))
	// 跳过路径不消耗令牌
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/api/health", "192.0.2.1"))
	}
}

func TestGinRateLimitMiddlewareDisabled(t *testing.T) {
	r := newRateLimitedRouter(config.RateLimitConfig{Enabled: false, Burst: 1, RequestsPerSecond: 0.001})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/ping", "192.0.2.1"))
	}
}

func TestIPLimiterSweepsIdleClients(t *testing.T) {
	l := newIPLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.Len(t, l.clients, 1)

	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("b"))
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "b")
}
