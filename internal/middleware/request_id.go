package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with a correlation id and echoes it in the
// response. An inbound header is honored only when it parses as a UUID, so a
// fronting proxy can thread its own id through without the gateway logging
// arbitrary caller-chosen strings.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(requestIDHeader, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID, or "" outside its
// chain.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDHeader)
}
