package middleware

import (
	"time"

	"github.com/LucienMarcon/APP-BP/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	loggerKey    = "logger"
	logFieldsKey = "log_fields"
)

// Logger creates a middleware that logs each request once it completes.
// Handlers can attach domain fields to that line with AddLogField.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(loggerKey, requestLogger)

		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"bytes":       c.Writer.Size(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if fields["path"] == "" {
			fields["path"] = c.Request.URL.Path
		}
		if len(c.Request.URL.RawQuery) > 0 {
			fields["query"] = c.Request.URL.RawQuery
		}
		if extra, ok := c.Get(logFieldsKey); ok {
			for k, v := range extra.(map[string]interface{}) {
				fields[k] = v
			}
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		statusCode := c.Writer.Status()
		switch {
		case statusCode >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case statusCode >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// AddLogField attaches a field to the request completion log line.
func AddLogField(c *gin.Context, key string, value interface{}) {
	fields, ok := c.Get(logFieldsKey)
	if !ok {
		fields = map[string]interface{}{}
		c.Set(logFieldsKey, fields)
	}
	fields.(map[string]interface{})[key] = value
}

// GetLogger retrieves the request logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(loggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
