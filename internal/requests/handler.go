package requests

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/activities"
	"urs-backend/internal/artifacts"
	"urs-backend/internal/extract"
	"urs-backend/internal/history"
	"urs-backend/internal/notes"
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
	rg.GET("/requests", h.list)
	rg.POST("/requests", h.submit)
	rg.GET("/requests/:id", h.detail)
	rg.GET("/requests/:id/file", h.file)
	rg.POST("/requests/:id/verify", h.verify)
	rg.PATCH("/requests/:id/progress", h.progress)
}

type Response struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Agency             string    `json:"agency"`
	OwnerID            string    `json:"ownerId"`
	OwnerName          string    `json:"ownerName"`
	StartDate          string    `json:"startDate"`
	EndDate            string    `json:"endDate"`
	ProgressStatus     string    `json:"progressStatus"`
	ProgressLabel      string    `json:"progressLabel"`
	VerificationStatus string    `json:"verificationStatus"`
	VerificationLabel  string    `json:"verificationLabel"`
	FileName           string    `json:"fileName"`
	FileURL            string    `json:"fileUrl"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func ToResponse(r Request) Response {
	return Response{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		Agency:             r.Agency,
		OwnerID:            r.OwnerID,
		OwnerName:          r.OwnerName,
		StartDate:          r.StartDate.Format(dateLayout),
		EndDate:            r.EndDate.Format(dateLayout),
		ProgressStatus:     string(r.Progress),
		ProgressLabel:      r.Progress.Label(),
		VerificationStatus: string(r.Verification),
		VerificationLabel:  r.Verification.Label(),
		FileName:           r.FileName,
		FileURL:            "/api/v1/requests/" + strconv.FormatInt(r.ID, 10) + "/file",
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// EntryResponse is a history entry with the artifacts attached to it.
type EntryResponse struct {
	ID          int64                `json:"id"`
	Kind        string               `json:"kind"`
	Status      string               `json:"status"`
	StatusLabel string               `json:"statusLabel"`
	Reason      *string              `json:"reason"`
	ActorID     string               `json:"actorId"`
	ActorName   string               `json:"actorName"`
	CreatedAt   time.Time            `json:"createdAt"`
	Artifacts   []artifacts.Response `json:"artifacts"`
}

type DetailResponse struct {
	Request    Response              `json:"request"`
	History    []EntryResponse       `json:"history"`
	Activities []activities.Response `json:"activities"`
	Notes      []notes.Response      `json:"notes"`
}

func toEntryResponses(entries []history.Entry, files []artifacts.Artifact) []EntryResponse {
	byEntry := make(map[int64][]artifacts.Response)
	for _, a := range files {
		byEntry[a.HistoryID] = append(byEntry[a.HistoryID], artifacts.ToResponse(a))
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		attached := byEntry[e.ID]
		if attached == nil {
			attached = []artifacts.Response{}
		}
		out = append(out, EntryResponse{
			ID:          e.ID,
			Kind:        string(e.Kind()),
			Status:      e.Status.Value(),
			StatusLabel: e.Status.Label(),
			Reason:      e.Reason,
			ActorID:     e.ActorID,
			ActorName:   e.ActorName,
			CreatedAt:   e.CreatedAt,
			Artifacts:   attached,
		})
	}
	return out
}

type outcomeResponse struct {
	Request       Response        `json:"request"`
	Entries       []EntryResponse `json:"entries"`
	Notifications int             `json:"notifications"`
}

func toOutcomeResponse(out Outcome) outcomeResponse {
	return outcomeResponse{
		Request:       ToResponse(out.Request),
		Entries:       toEntryResponses(out.Entries, nil),
		Notifications: len(out.Notifications),
	}
}

func (h *Handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	result, err := h.Svc.List(c.Request.Context(), middleware.PrincipalFromContext(c), ListInput{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Page:   page,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	items := make([]Response, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, ToResponse(r))
	}
	respond.OK(c, gin.H{
		"items":   items,
		"total":   result.Total,
		"page":    result.Page,
		"perPage": result.PerPage,
	})
}

func (h *Handler) submit(c *gin.Context) {
	upload.LimitBody(c, extract.MaxPDFBytes+(1<<20))
	file, err := upload.FromForm(c, "file", extract.MaxPDFBytes)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	out, err := h.Svc.Submit(c.Request.Context(), middleware.PrincipalFromContext(c), SubmitInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Agency:      c.PostForm("agency"),
		FileName:    file.Name,
		Data:        file.Data,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.AppRequestIDKey, out.Request.ID)
	c.Set(middleware.StatusTransitionKey, Describe(out.Entries))
	respond.Created(c, toOutcomeResponse(out))
}

func (h *Handler) detail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.Svc.Detail(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, DetailResponse{
		Request:    ToResponse(d.Request),
		History:    toEntryResponses(d.History, d.Artifacts),
		Activities: activities.ToResponses(d.Activities),
		Notes:      notes.ToResponses(d.Notes),
	})
}

func (h *Handler) file(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rc, req, err := h.Svc.OpenFile(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", extract.MimePDF)
	c.Header("Content-Disposition", "inline; filename=\""+req.FileName+"\"")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, rc)
}

type verifyRequest struct {
	VerificationStatus string `json:"verificationStatus"`
	Reason             string `json:"reason"`
}

func (h *Handler) verify(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	out, err := h.Svc.Verify(c.Request.Context(), middleware.PrincipalFromContext(c), id, req.VerificationStatus, req.Reason)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, Describe(out.Entries))
	respond.OK(c, toOutcomeResponse(out))
}

type progressRequest struct {
	Status  string `json:"status"`
	EndDate string `json:"endDate"`
	Reason  string `json:"reason"`
}

func (h *Handler) progress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	out, err := h.Svc.UpdateProgress(c.Request.Context(), middleware.PrincipalFromContext(c), id, req.Status, req.EndDate, req.Reason)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, Describe(out.Entries))
	respond.OK(c, toOutcomeResponse(out))
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.FromError(c, apperr.NotFound("request"))
		return 0, false
	}
	c.Set(middleware.AppRequestIDKey, id)
	return id, true
}
