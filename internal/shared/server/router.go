package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"juris-backend/internal/clients"
	"juris-backend/internal/dashboard"
	"juris-backend/internal/process"
	"juris-backend/internal/services/health"
	"juris-backend/internal/shared/auth"
	"juris-backend/internal/shared/config"
	"juris-backend/internal/shared/metrics"
	"juris-backend/internal/shared/server/middleware"
	"juris-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault   = "DEFAULT"
	rateGroupInference = "INFERENCE"
)

// RouterDeps carries the handlers and shared services mounted on the engine.
type RouterDeps struct {
	Config           config.Config
	Signer           *auth.Signer
	Health           *health.Service
	ClientHandler    *clients.Handler
	DashboardHandler *dashboard.Handler
	ProcessHandler   *process.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 20
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(middleware.AuthConfig{
			Signer:      deps.Signer,
			Required:    cfg.AuthRequired,
			PublicPaths: []string{"/health", "/metrics"},
		}),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: rps * 4, Burst: burst * 2},
				// Inference is slow and expensive; keep it well under the default budget.
				rateGroupInference: {Rate: rps, Burst: burst},
			},
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	if deps.ClientHandler != nil {
		deps.ClientHandler.RegisterRoutes(api)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterRoutes(api)
	}
	if deps.ProcessHandler != nil {
		deps.ProcessHandler.RegisterRoutes(&r.RouterGroup)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if strings.HasPrefix(c.Request.URL.Path, "/process/") {
		return rateGroupInference
	}
	return rateGroupDefault
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
