package process

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"juris-backend/internal/extract"
	"juris-backend/internal/llm"
	"juris-backend/internal/shared/server/respond"
	"juris-backend/internal/shared/storage/object"
)

const maxUploadSize = 25 << 20 // 25MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the document question routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/process/file", h.file)
	rg.POST("/process/message", h.message)
	rg.GET("/process/pages", h.pages)
}

type processResponse struct {
	Response      string `json:"response,omitempty"`
	ExtractedText any    `json:"extracted_text"`
	SkippedPages  []int  `json:"skipped_pages"`
	SessionID     string `json:"sessionId"`
	StorageKey    string `json:"storageKey,omitempty"`
}

func toResponse(res Result) processResponse {
	skipped := res.Skipped
	if skipped == nil {
		skipped = []int{}
	}
	return processResponse{
		Response:      res.Response,
		ExtractedText: res.Extracted,
		SkippedPages:  skipped,
		SessionID:     res.SessionID,
		StorageKey:    res.StorageKey,
	}
}

func (h *Handler) file(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Please upload a file", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	isExtraction := false
	if raw := strings.TrimSpace(c.PostForm("is_extraction")); raw != "" {
		if isExtraction, err = strconv.ParseBool(raw); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "is_extraction must be a boolean", nil)
			return
		}
	}

	sessionID := strings.TrimSpace(c.PostForm("sessionId"))
	if sessionID != "" {
		c.Set("sessionId", sessionID)
	}

	res, err := h.Svc.ProcessFile(c.Request.Context(), FileRequest{
		FileName:     fileHeader.Filename,
		Data:         data,
		Prompt:       c.PostForm("prompt"),
		SessionID:    sessionID,
		Model:        c.PostForm("model"),
		SystemPrompt: c.PostForm("system_prompt"),
		IsExtraction: isExtraction,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("sessionId", res.SessionID)
	respond.OK(c, toResponse(res))
}

func (h *Handler) message(c *gin.Context) {
	sessionID := strings.TrimSpace(c.PostForm("sessionId"))
	if sessionID != "" {
		c.Set("sessionId", sessionID)
	}

	res, err := h.Svc.ProcessMessage(c.Request.Context(), MessageRequest{
		Prompt:        c.PostForm("prompt"),
		ExtractedText: c.PostForm("extracted_text"),
		SessionID:     sessionID,
		Model:         c.PostForm("model"),
		SystemPrompt:  c.PostForm("system_prompt"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("sessionId", res.SessionID)
	respond.OK(c, toResponse(res))
}

func (h *Handler) pages(c *gin.Context) {
	res, err := h.Svc.StoredPages(c.Request.Context(), c.Query("sessionId"), c.Query("storageKey"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("sessionId", res.SessionID)
	respond.OK(c, toResponse(res))
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, extract.ErrEmptyFile):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, llm.ErrInvalidModel):
		respond.Error(c, http.StatusBadRequest, "invalid_model", err.Error(), nil)
	case errors.Is(err, object.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "stored document not found", nil)
	case errors.Is(err, extract.ErrNoText):
		respond.Error(c, http.StatusBadRequest, "no_text", "No valid text extracted from any pages", nil)
	case errors.Is(err, ErrInferenceFailed):
		respond.Error(c, http.StatusInternalServerError, "inference_failed", "Final API request failed", err.Error())
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", err.Error())
	}
}
