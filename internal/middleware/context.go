package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
)

const (
	// RequestIDKey is the context key for the request ID
	RequestIDKey = "request_id"
	// RequestIDHeader is the HTTP header name for the request ID
	RequestIDHeader = "X-Request-ID"
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey = "logger"
)

// RequestContext assigns each request an ID, echoing an upstream
// X-Request-ID when present, and stores a logger tagged with it.
func RequestContext(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Set(LoggerKey, log.WithRequestID(requestID))
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context.
// Returns an empty string if not found.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// GetLogger retrieves the request logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
