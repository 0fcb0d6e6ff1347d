package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
)

// Recovery turns a handler panic into a 500 response using the standard
// error envelope. The envelope is written inline because the errors package
// depends on this one.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			requestID := GetRequestID(c)
			l := GetLogger(c)
			if l == nil {
				l = log
			}
			l.Error("Panic recovered", fmt.Errorf("panic: %v", p), map[string]interface{}{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"stack":  string(debug.Stack()),
			})

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "An unexpected error occurred",
					"request_id": requestID,
				},
			})
		}()

		c.Next()
	}
}
