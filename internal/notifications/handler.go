package notifications

import (
	"net/http"
	"strconv"
	"time"

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
	rg.GET("/notifications", h.list)
	rg.POST("/notifications/read-all", h.markAllRead)
	rg.POST("/notifications/:id/read", h.markRead)
}

type notificationResponse struct {
	ID        string     `json:"id"`
	RequestID int64      `json:"requestId"`
	HistoryID int64      `json:"historyId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      string     `json:"link,omitempty"`
	IsRead    bool       `json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		RequestID: n.RequestID,
		HistoryID: n.HistoryID,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) list(c *gin.Context) {
	page := 1
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	inbox, err := h.Svc.List(c.Request.Context(), middleware.PrincipalFromContext(c), page)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	items := make([]notificationResponse, 0, len(inbox.Items))
	for _, n := range inbox.Items {
		items = append(items, toResponse(n))
	}
	respond.OK(c, gin.H{
		"items":   items,
		"total":   inbox.Total,
		"unread":  inbox.Unread,
		"page":    inbox.Page,
		"perPage": inbox.PerPage,
	})
}

func (h *Handler) markRead(c *gin.Context) {
	n, err := h.Svc.MarkRead(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(n))
}

func (h *Handler) markAllRead(c *gin.Context) {
	updated, err := h.Svc.MarkAllRead(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"updated": updated})
}
