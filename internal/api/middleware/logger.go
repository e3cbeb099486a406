package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs every request once it has been handled
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("duration", time.Since(start).String()),
			slog.String("client_ip", c.ClientIP()),
		}

		if status >= 500 {
			logger.Error("Request failed", args...)
			return
		}
		logger.Debug("Request handled", args...)
	}
}
