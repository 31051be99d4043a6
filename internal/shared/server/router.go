package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/services/health"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/auth"
	"urs-backend/internal/shared/config"
	"urs-backend/internal/shared/metrics"
	"urs-backend/internal/shared/server/middleware"
	"urs-backend/internal/shared/server/respond"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted under /api/v1. Public routes skip
// authentication; Admin routes additionally require the admin role.
type RouterDeps struct {
	Config  config.Config
	Signer  *auth.Signer
	Health  *health.Service
	Limiter *middleware.RateLimiter
	// RateLimitedRoutes maps "METHOD /full/path" to a rule group.
	RateLimitedRoutes map[string]string
	Public            []RouteRegistrar
	Protected         []RouteRegistrar
	Admin             []RouteRegistrar
}

// DraftingGroup is the rate-limit group for AI drafting.
const DraftingGroup = "DRAFTING"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Signer),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateRules(deps.Config),
			GroupFor: middleware.GroupByRoute(deps.RateLimitedRoutes),
			Limiter:  deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	for _, h := range deps.Public {
		h.RegisterRoutes(api)
	}
	for _, h := range deps.Protected {
		h.RegisterRoutes(api)
	}

	admin := api.Group("", middleware.RequireRole(access.RoleAdmin))
	for _, h := range deps.Admin {
		h.RegisterRoutes(admin)
	}

	return r
}

func rateRules(cfg config.Config) map[string]middleware.RateLimitRule {
	perMinute := cfg.DraftRatePerMinute
	if perMinute <= 0 {
		perMinute = 6
	}
	burst := cfg.DraftBurst
	if burst <= 0 {
		burst = 3
	}
	return map[string]middleware.RateLimitRule{
		DraftingGroup: {Rate: perMinute / 60, Burst: burst},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
