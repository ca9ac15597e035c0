package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS sets CORS headers and handles preflight requests. A "*" entry allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Guest-Id", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "X-Total-Count"},
		MaxAge:        10 * time.Minute,
	}

	var origins []string
	for _, o := range allowedOrigins {
		trimmed := strings.TrimSpace(o)
		if trimmed == "*" {
			cfg.AllowAllOrigins = true
			origins = nil
			break
		}
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if !cfg.AllowAllOrigins {
		if len(origins) == 0 {
			origins = []string{"http://localhost:5173"}
		}
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
