package middleware

import (
	"crypto/subtle"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const APIKeyHeader = "X-API-Key"

// APIKey requires the X-API-Key header to equal key. An empty key locks the
// route entirely.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || !secureEqual(c.GetHeader(APIKeyHeader), key) {
			_ = c.Error(errutil.Unauthorized("Invalid API key", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SharedSecret checks the named query parameter when a secret is configured.
// Without a secret the route is open.
func SharedSecret(param, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && !secureEqual(c.Query(param), secret) {
			_ = c.Error(errutil.Unauthorized("Invalid webhook secret", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func secureEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
