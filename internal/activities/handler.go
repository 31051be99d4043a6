package activities

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/server/middleware"
	"urs-backend/internal/shared/server/respond"
)

const dateLayout = "2006-01-02"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches checklist routes. Callers mount them on an admin-only group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/requests/:id/activities", h.create)
	rg.POST("/requests/:id/activities/reorder", h.reorder)
	rg.PATCH("/activities/:id", h.update)
	rg.DELETE("/activities/:id", h.delete)
	rg.PATCH("/activities/:id/status", h.setStatus)
	rg.POST("/activities/:id/sub-activities", h.addSubs)
	rg.PATCH("/sub-activities/:id/toggle", h.toggleSub)
	rg.DELETE("/sub-activities/:id", h.deleteSub)
}

type SubActivityResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Response is the JSON shape of an activity; request detail embeds it.
type Response struct {
	ID            int64                 `json:"id"`
	RequestID     int64                 `json:"requestId"`
	Iteration     int                   `json:"iteration"`
	Description   string                `json:"description"`
	StartDate     *string               `json:"startDate"`
	EndDate       *string               `json:"endDate"`
	PIC           []string              `json:"pic"`
	Completed     bool                  `json:"completed"`
	SubActivities []SubActivityResponse `json:"subActivities"`
}

func ToResponse(a Activity) Response {
	subs := make([]SubActivityResponse, 0, len(a.SubActivities))
	for _, s := range a.SubActivities {
		subs = append(subs, SubActivityResponse{ID: s.ID, Name: s.Name, Completed: s.Completed})
	}
	pic := a.PIC
	if pic == nil {
		pic = []string{}
	}
	return Response{
		ID:            a.ID,
		RequestID:     a.RequestID,
		Iteration:     a.Iteration,
		Description:   a.Description,
		StartDate:     formatDate(a.StartDate),
		EndDate:       formatDate(a.EndDate),
		PIC:           pic,
		Completed:     a.Completed,
		SubActivities: subs,
	}
}

func ToResponses(list []Activity) []Response {
	out := make([]Response, 0, len(list))
	for _, a := range list {
		out = append(out, ToResponse(a))
	}
	return out
}

type activityRequest struct {
	Description   string   `json:"description"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	PIC           []string `json:"pic"`
	SubActivities []string `json:"subActivities"`
}

func (h *Handler) create(c *gin.Context) {
	requestID, ok := parseID(c, "request")
	if !ok {
		return
	}
	var req activityRequest
	if !bindJSON(c, &req) {
		return
	}
	start, end, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.AppRequestIDKey, requestID)
	created, err := h.Svc.Create(c.Request.Context(), middleware.PrincipalFromContext(c), requestID, CreateInput{
		Description:   req.Description,
		StartDate:     start,
		EndDate:       end,
		PIC:           req.PIC,
		SubActivities: req.SubActivities,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, ToResponse(created))
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}
	var req activityRequest
	if !bindJSON(c, &req) {
		return
	}
	start, end, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	updated, err := h.Svc.Update(c.Request.Context(), middleware.PrincipalFromContext(c), id, Patch{
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		PIC:         req.PIC,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(updated))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.PrincipalFromContext(c), id); err != nil {
		respond.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	OrderedIDs []int64 `json:"orderedIds"`
}

func (h *Handler) reorder(c *gin.Context) {
	requestID, ok := parseID(c, "request")
	if !ok {
		return
	}
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(middleware.AppRequestIDKey, requestID)
	list, err := h.Svc.Reorder(c.Request.Context(), middleware.PrincipalFromContext(c), requestID, req.OrderedIDs)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": ToResponses(list)})
}

type statusRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) setStatus(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Completed == nil {
		respond.FromError(c, apperr.Invalid("completed", "completed is required"))
		return
	}
	updated, err := h.Svc.SetCompleted(c.Request.Context(), middleware.PrincipalFromContext(c), id, *req.Completed)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(updated))
}

type subActivitiesRequest struct {
	Names []string `json:"names"`
}

func (h *Handler) addSubs(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}
	var req subActivitiesRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.Svc.AddSubActivities(c.Request.Context(), middleware.PrincipalFromContext(c), id, req.Names)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, ToResponse(updated))
}

func (h *Handler) toggleSub(c *gin.Context) {
	id, ok := parseID(c, "sub-activity")
	if !ok {
		return
	}
	updated, err := h.Svc.ToggleSubActivity(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(updated))
}

func (h *Handler) deleteSub(c *gin.Context) {
	id, ok := parseID(c, "sub-activity")
	if !ok {
		return
	}
	updated, err := h.Svc.DeleteSubActivity(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(updated))
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return false
	}
	return true
}

func parseID(c *gin.Context, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.FromError(c, apperr.NotFound(resource))
		return 0, false
	}
	return id, true
}

func parseDates(rawStart, rawEnd string) (*time.Time, *time.Time, error) {
	verr := &apperr.ValidationError{}
	start := parseDate(verr, "startDate", rawStart)
	end := parseDate(verr, "endDate", rawEnd)
	return start, end, verr.OrNil()
}

func parseDate(verr *apperr.ValidationError, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		verr.Add(field, "date must use YYYY-MM-DD")
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
