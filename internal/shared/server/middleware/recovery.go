package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urs-backend/internal/shared/server/respond"
	"urs-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard internal_error response
// and logs it with the request and principal it happened under.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := []zap.Field{
				zap.String("request_id", RequestIDFromContext(c)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("user_id", PrincipalFromContext(c).UserID),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			}
			if appRequestID, ok := c.Get(AppRequestIDKey); ok {
				fields = append(fields, zap.Any("app_request_id", appRequestID))
			}
			telemetry.Logger().Error("http.panic", fields...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.FromError(c, fmt.Errorf("panic: %v", rec))
		}()
		c.Next()
	}
}
