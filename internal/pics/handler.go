package pics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/server/middleware"
	"urs-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/pics", h.list)
	rg.POST("/pics", h.create)
	rg.PUT("/pics/:id", h.update)
	rg.DELETE("/pics/:id", h.delete)
}

type picRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	items := make([]Response, 0, len(list))
	for _, p := range list {
		items = append(items, ToResponse(p))
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) create(c *gin.Context) {
	var req picRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), middleware.PrincipalFromContext(c), Input(req))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, ToResponse(created))
}

func (h *Handler) update(c *gin.Context) {
	var req picRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.Update(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id"), Input(req))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(updated))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id")); err != nil {
		respond.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
