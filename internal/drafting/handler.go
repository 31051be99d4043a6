package drafting

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/server/middleware"
	"urs-backend/internal/shared/server/respond"
)

// DraftRoute is the route key used to attach the drafting rate limit.
const DraftRoute = "POST /api/v1/requests/:id/notes/draft"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:id/notes/draft", h.draft)
}

type draftRequest struct {
	Title        string `json:"title"`
	Context      string `json:"context"`
	ExistingNote string `json:"existingNote"`
}

type draftResponse struct {
	GeneratedNote string `json:"generatedNote"`
	ModelUsed     string `json:"modelUsed"`
}

func (h *Handler) draft(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.FromError(c, apperr.NotFound("request"))
		return
	}
	c.Set(middleware.AppRequestIDKey, id)

	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	d, err := h.Svc.Draft(c.Request.Context(), middleware.PrincipalFromContext(c), id, Input{
		Title:        req.Title,
		Context:      req.Context,
		ExistingNote: req.ExistingNote,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, draftResponse{GeneratedNote: d.Text, ModelUsed: d.Model})
}
