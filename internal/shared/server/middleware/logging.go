package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	AppRequestIDKey     = "appRequestId"
	StatusTransitionKey = "statusTransition"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		p := PrincipalFromContext(c)
		appRequestID, _ := c.Get(AppRequestIDKey)
		statusTransition := c.GetString(StatusTransitionKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"status_transition": statusTransition,
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           p.UserID,
			"role":              string(p.Role),
			"app_request_id":    appRequestID,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
