package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/response"
)

// MonitorTokenHeader carries the proctor's shared secret.
const MonitorTokenHeader = "X-Monitor-Token"

// RequireMonitorToken guards proctor-only routes with a shared secret. The
// header may be replaced by ?token= for EventSource clients.
func RequireMonitorToken(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got := c.GetHeader(MonitorTokenHeader)
		if got == "" {
			got = c.Query("token")
		}
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			response.AbortFail(c, http.StatusForbidden, response.ErrMonitorForbidden)
			return
		}
		c.Next()
	}
}
