package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS mirrors the teacher's middleware.CORS() (referenced by the
// teacher's routes.go but not present in the retrieved source): permissive
// cross-origin headers suitable for a browser client talking to a
// separately-hosted API, with the usual OPTIONS short-circuit.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
