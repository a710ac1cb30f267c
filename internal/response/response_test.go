package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"hello": "world"}) })
	r.GET("/bad", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"contact": "invalid"})
	})
	return r
}

func TestSuccessEchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-1")
	newRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Nil(t, body.Error)
	require.Equal(t, "req-1", body.Metadata.RequestID)
}

func TestMetadataCarriesSessionID(t *testing.T) {
	r := newRouter()
	r.GET("/session", func(c *gin.Context) {
		c.Set(ContextKeySessionID, "5f0c4a7e-1f7b-4a55-9d6b-0d1e2f3a4b5c")
		Success(c, http.StatusOK, nil)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "5f0c4a7e-1f7b-4a55-9d6b-0d1e2f3a4b5c", body.Metadata.SessionID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NotContains(t, w.Body.String(), "session_id")
}

func TestOversizedRequestIDIsReplaced(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	newRouter().ServeHTTP(w, req)

	require.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestFailWithFields(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	require.Equal(t, ErrValidation, body.Error.Code)
	require.Equal(t, GetMessage(ErrValidation), body.Error.Message)
	require.Equal(t, "invalid", body.Error.Fields["contact"])
}
