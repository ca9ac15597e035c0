package clients

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches client routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/clients", h.list)
	rg.POST("/clients", h.create)
	rg.PUT("/clients/:clientId", h.update)
	rg.DELETE("/clients/:clientId", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be an integer", nil)
		return
	}

	list, total, err := h.Svc.List(c.Request.Context(), ListParams{
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(total))
	respond.OK(c, toResponses(list))
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("clientId", strings.TrimSpace(req.ClientID))

	created, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Created(c, toResponse(created))
}

func (h *Handler) update(c *gin.Context) {
	clientID := c.Param("clientId")
	c.Set("clientId", clientID)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	updated, err := h.Svc.Update(c.Request.Context(), clientID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, toResponse(updated))
}

func (h *Handler) delete(c *gin.Context) {
	clientID := c.Param("clientId")
	c.Set("clientId", clientID)

	if err := h.Svc.Delete(c.Request.Context(), clientID); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Client not found", nil)
	case errors.Is(err, ErrDuplicateClientID):
		respond.Error(c, http.StatusBadRequest, "duplicate_client", "Client ID already exists", nil)
	case errors.Is(err, ErrInvalidDeadline):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid deadline format. Use ISO format (YYYY-MM-DD).", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process client request", err.Error())
	}
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
