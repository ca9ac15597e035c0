package dashboard

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"juris-backend/internal/shared/config"
	"juris-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches dashboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/summary", h.summary)
}

type summaryResponse struct {
	Summary
	ReferenceDate string `json:"referenceDate"`
}

func (h *Handler) summary(c *gin.Context) {
	var asOf *time.Time
	if raw := strings.TrimSpace(c.Query("asOf")); raw != "" {
		t, err := time.ParseInLocation(config.DateLayout, raw, time.UTC)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "asOf must be YYYY-MM-DD", nil)
			return
		}
		asOf = &t
	}

	sum, err := h.Svc.Summary(c.Request.Context(), asOf)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build summary", nil)
		return
	}
	respond.OK(c, summaryResponse{
		Summary:       sum,
		ReferenceDate: sum.ReferenceDate.Format(config.DateLayout),
	})
}
