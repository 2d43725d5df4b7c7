package middleware

import (
	"time"

	"github.com/annazecevic/catalog-service/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestLogger tags each request with an id, echoing a client supplied one,
// and logs the outcome once the handler chain returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		fields := logger.Fields(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		)
		switch {
		case status >= 500:
			logger.Error(logger.EventRequest, "request failed", fields)
		case status >= 400:
			logger.Warn(logger.EventRequest, "request rejected", fields)
		default:
			logger.Info(logger.EventRequest, "request handled", fields)
		}
	}
}

// RequestID returns the id RequestLogger assigned, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
