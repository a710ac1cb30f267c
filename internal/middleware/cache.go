package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids browsers and proxies from caching exam responses, which
// change every second and carry candidate data.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
