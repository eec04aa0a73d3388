package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccessLog logs every request once it completes and recovers from panics
// with the standard error envelope.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			entry := logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
				"method":    c.Request.Method,
				"path":      c.Request.URL.Path,
				"query":     c.Request.URL.RawQuery,
				"client_ip": c.ClientIP(),
				"latency":   time.Since(start).String(),
			})

			if recovered := recover(); recovered != nil {
				entry.WithField("stack", string(debug.Stack())).
					Error(fmt.Sprintf("panic: %v", recovered))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_SERVER_ERROR",
						"message": "Internal Server Error",
					},
				})
				return
			}

			entry = entry.WithField("status", c.Writer.Status())
			for _, err := range c.Errors {
				entry = entry.WithError(err.Err)
			}
			switch status := c.Writer.Status(); {
			case status >= http.StatusInternalServerError:
				entry.Error("request failed")
			case status >= http.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}
		}()

		c.Next()
	}
}
