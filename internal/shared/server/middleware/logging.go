package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"juris-backend/internal/shared/metrics"
	"juris-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request and records request metrics.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.ObserveHTTP(c.FullPath(), c.Request.Method, status, latency)

		userID, _ := c.Get(userIDKey)
		clientID, _ := c.Get("clientId")
		sessionID, _ := c.Get("sessionId")

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"client_id":   clientID,
			"session_id":  sessionID,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
