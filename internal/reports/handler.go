package reports

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/apperr"
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
	rg.POST("/reports", h.generate)
	rg.POST("/requests/:id/notes/report", h.minutes)
}

type generateRequest struct {
	RequestIDs []int64 `json:"requestIds"`
	Format     string  `json:"format"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	format := Format(strings.ToLower(strings.TrimSpace(req.Format)))
	file, err := h.Svc.Generate(c.Request.Context(), middleware.PrincipalFromContext(c), req.RequestIDs, format)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	sendFile(c, format, file)
}

type minutesRequest struct {
	Format       string `json:"format"`
	Time         string `json:"time"`
	Leader       string `json:"leader"`
	Speakers     string `json:"speakers"`
	Place        string `json:"place"`
	Participants string `json:"participants"`
}

func (h *Handler) minutes(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.FromError(c, apperr.NotFound("request"))
		return
	}
	var req minutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	format := Format(strings.ToLower(strings.TrimSpace(req.Format)))
	file, err := h.Svc.GenerateMinutes(c.Request.Context(), middleware.PrincipalFromContext(c), id, Meeting{
		Time:         req.Time,
		Leader:       req.Leader,
		Speakers:     req.Speakers,
		Place:        req.Place,
		Participants: req.Participants,
	}, format)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	sendFile(c, format, file)
}

func sendFile(c *gin.Context, format Format, file File) {
	disposition := "attachment"
	if format == FormatHTML {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
