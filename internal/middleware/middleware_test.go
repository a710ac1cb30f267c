package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stretchr/testify/require"
)

type sessionKey string

func (k *sessionKey) SessionID() string { return string(*k) }

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCandidateAuthChain(t *testing.T) {
	key := sessionKey("session-1")
	auth := service.NewAuthService(&config.Config{JWTSecret: "secret", JWTExpiry: time.Hour}, &key)
	token, err := auth.GenerateCandidateToken("session-1", "ada@example.com")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/exam", RequireCandidateJWT(auth), CheckActiveSession(auth), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).Contact)
	})
	r.GET("/ws", RequireCandidateWSAuth(auth), CheckActiveSession(auth), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/exam", nil)
	require.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/exam", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	w := serve(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "TOKEN_INVALID")

	req = httptest.NewRequest(http.MethodGet, "/exam", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ada@example.com", w.Body.String())

	require.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)).Code)
	require.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/ws", nil)).Code)

	key = "session-2"
	req = httptest.NewRequest(http.MethodGet, "/exam", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "SESSION_INVALIDATED")
}

func TestRequireMonitorToken(t *testing.T) {
	r := gin.New()
	r.GET("/monitor", RequireMonitorToken("proctor-secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/monitor", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/monitor", nil)
	req.Header.Set(MonitorTokenHeader, "wrong")
	require.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/monitor", nil)
	req.Header.Set(MonitorTokenHeader, "proctor-secret")
	require.Equal(t, http.StatusOK, serve(r, req).Code)

	require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/monitor?token=proctor-secret", nil)).Code)

	open := gin.New()
	open.GET("/monitor", RequireMonitorToken(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusForbidden, serve(open, httptest.NewRequest(http.MethodGet, "/monitor", nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	t.Cleanup(rl.Stop)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.allow("10.0.0.1"))
	require.True(t, rl.allow("10.0.0.1"))
	require.False(t, rl.allow("10.0.0.1"))
	require.True(t, rl.allow("10.0.0.2"))

	now = now.Add(time.Minute)
	require.True(t, rl.allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	rl.cleanup()
	require.Empty(t, rl.visitors)

	r := gin.New()
	limited := NewRateLimiter(1, time.Hour)
	t.Cleanup(limited.Stop)
	r.POST("/candidates", limited.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	require.Equal(t, http.StatusCreated, serve(r, httptest.NewRequest(http.MethodPost, "/candidates", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodPost, "/candidates", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/state", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := serve(r, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat(`{"prompt":"What does HTML stand for?"}`, 100)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := serve(r, req)
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	require.Equal(t, big, string(plain))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = serve(r, req)
	require.Empty(t, w.Header().Get("Content-Encoding"))
	require.Equal(t, "ok", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/big", nil)
	w = serve(r, req)
	require.Empty(t, w.Header().Get("Content-Encoding"))
	require.Equal(t, big, w.Body.String())
}
