// Package middleware holds the Gin middleware shared by the Search and
// Updater HTTP surfaces (§6).
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDKey = "request_id"

// RequestID ensures every request carries a correlation id: it accepts an
// inbound X-Request-ID header if it is 1 to 64 bytes long, otherwise mints
// a UUID. The id is echoed back in the response header and stashed in the Gin
// context for the logger middleware to pick up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")

		l := len(requestID)
		if l < 1 || l > 64 {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set(RequestIDKey, requestID)
		c.Next()
	}
}

// GetRequestID retrieves the request ID stashed by RequestID, or "" if
// the middleware hasn't run (e.g. in a handler-level unit test).
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
