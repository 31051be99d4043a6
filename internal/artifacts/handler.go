package artifacts

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/extract"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/server/middleware"
	"urs-backend/internal/shared/server/respond"
	"urs-backend/internal/shared/server/upload"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:id/history/:historyId/documents", h.addDocument)
	rg.POST("/requests/:id/history/:historyId/images", h.addImage)
	rg.GET("/artifacts/:id/file", h.open)
	rg.POST("/artifacts/:id/verify", h.verify)
}

// Response is the JSON shape of an artifact.
type Response struct {
	ID                 int64     `json:"id"`
	RequestID          int64     `json:"requestId"`
	HistoryID          int64     `json:"historyId"`
	Kind               Kind      `json:"kind"`
	Stage              string    `json:"stage"`
	StageLabel         string    `json:"stageLabel"`
	DisplayName        string    `json:"displayName"`
	MimeType           string    `json:"mimeType"`
	VerificationStatus string    `json:"verificationStatus"`
	Reason             *string   `json:"reason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ToResponse renders an artifact; the request detail view embeds it too.
func ToResponse(a Artifact) Response {
	return Response{
		ID:                 a.ID,
		RequestID:          a.RequestID,
		HistoryID:          a.HistoryID,
		Kind:               a.Kind,
		Stage:              string(a.Stage),
		StageLabel:         a.Stage.Label(),
		DisplayName:        a.DisplayName,
		MimeType:           a.MimeType,
		VerificationStatus: string(a.Verification),
		Reason:             a.Reason,
		CreatedAt:          a.CreatedAt,
	}
}

func (h *Handler) addDocument(c *gin.Context) {
	h.add(c, KindDocument, extract.MaxPDFBytes)
}

func (h *Handler) addImage(c *gin.Context) {
	h.add(c, KindImage, extract.MaxImageBytes)
}

func (h *Handler) add(c *gin.Context, kind Kind, max int64) {
	requestID, ok := parseID(c, "id", "request")
	if !ok {
		return
	}
	historyID, ok := parseID(c, "historyId", "history entry")
	if !ok {
		return
	}
	c.Set(middleware.AppRequestIDKey, requestID)
	upload.LimitBody(c, max+(1<<20))

	file, err := upload.FromForm(c, "file", max)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	created, err := h.Svc.Add(c.Request.Context(), middleware.PrincipalFromContext(c), AddInput{
		RequestID: requestID,
		HistoryID: historyID,
		Kind:      kind,
		FileName:  file.Name,
		Data:      file.Data,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, ToResponse(created))
}

type verifyRequest struct {
	VerificationStatus string `json:"verificationStatus"`
	Reason             string `json:"reason"`
}

func (h *Handler) verify(c *gin.Context) {
	id, ok := parseID(c, "id", "artifact")
	if !ok {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.Verify(c.Request.Context(), middleware.PrincipalFromContext(c), id, req.VerificationStatus, req.Reason)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.AppRequestIDKey, updated.RequestID)
	respond.OK(c, ToResponse(updated))
}

func (h *Handler) open(c *gin.Context) {
	id, ok := parseID(c, "id", "artifact")
	if !ok {
		return
	}
	rc, a, err := h.Svc.Open(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", a.MimeType)
	c.Header("Content-Disposition", "inline; filename=\""+a.DisplayName+"\"")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, rc)
}

func parseID(c *gin.Context, param, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		respond.FromError(c, apperr.NotFound(resource))
		return 0, false
	}
	return id, true
}
