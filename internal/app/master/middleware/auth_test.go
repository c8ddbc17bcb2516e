package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neovuln/internal/config"
	"neovuln/internal/pkg/auth"
	"neovuln/internal/pkg/database"
	"neovuln/internal/pkg/utils"
	systemrepo "neovuln/internal/repo/mysql/system"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.JWTManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteConnection(&config.SQLiteConfig{Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	accounts := systemrepo.NewAccountRepository(db)
	account, err := accounts.EnsureByEmail(context.Background(), "carol@example.com")
	require.NoError(t, err)

	jwtManager := auth.NewJWTManager("test-secret", "neovuln-test", time.Hour)
	m := NewMiddlewareManager(jwtManager, accounts, &config.SecurityConfig{
		CORS: config.CORSConfig{Enabled: true, AllowOrigins: []string{"https://ops.example.com"}},
	})

	r := gin.New()
	r.Use(m.GinRequestIDMiddleware(), m.GinCORSMiddleware(), m.GinSecurityHeadersMiddleware(), m.GinLoggingMiddleware())
	r.GET("/whoami", m.GinActorAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"actor":      utils.GetActorIDFromGinContext(c),
			"ctx_actor":  utils.GetActorIDFromContext(c.Request.Context()),
			"request_id": utils.GetRequestIDFromContext(c.Request.Context()),
		})
	})
	return r, jwtManager, account.UserID
}

func TestGinActorAuthMiddleware(t *testing.T) {
	r, jwtManager, userID := newTestRouter(t)

	token, err := jwtManager.GenerateToken(userID, "carol@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actor":"`+userID+`"`)
	assert.Contains(t, w.Body.String(), `"ctx_actor":"`+userID+`"`)
	assert.Contains(t, w.Body.String(), `"request_id":"req-1"`)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestGinActorAuthMiddlewareRejects(t *testing.T) {
	r, jwtManager, _ := newTestRouter(t)

	unknown, err := jwtManager.GenerateToken("00000000-0000-0000-0000-000000000000", "ghost@example.com")
	require.NoError(t, err)
	foreign, err := auth.NewJWTManager("other-secret", "neovuln-test", time.Hour).GenerateToken("x", "")
	require.NoError(t, err)

	for name, header := range map[string]string{
		"缺少令牌":    "",
		"非Bearer": "Basic abc",
		"签名不符":    "Bearer " + foreign,
		"账号不存在":   "Bearer " + unknown,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestGinCORSMiddleware(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
