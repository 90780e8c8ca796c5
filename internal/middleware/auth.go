package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// InternalAuthMiddleware guards the operational endpoints using the
// X-Internal-API-Key header, compared in constant time against the
// SMARTKURV_INTERNAL_KEY environment variable.
func InternalAuthMiddleware() gin.HandlerFunc {
	apiKey := os.Getenv("SMARTKURV_INTERNAL_KEY")
	if apiKey == "" {
		// Misconfigured deployments fail closed.
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: SMARTKURV_INTERNAL_KEY not set",
			})
		}
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader("X-Internal-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
