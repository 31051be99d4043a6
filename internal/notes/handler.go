package notes

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
	rg.POST("/requests/:id/notes", h.create)
	rg.GET("/notes/:id/image", h.image)
}

// Response is the JSON shape of a note.
type Response struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"requestId"`
	Title     string    `json:"title"`
	Note      string    `json:"note"`
	ImageName *string   `json:"imageName,omitempty"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToResponse(n Note) Response {
	resp := Response{
		ID:        n.ID,
		RequestID: n.RequestID,
		Title:     n.Title,
		Note:      n.Body,
		CreatedAt: n.CreatedAt,
	}
	if n.HasImage() {
		url := "/api/v1/notes/" + strconv.FormatInt(n.ID, 10) + "/image"
		resp.ImageName = n.ImageName
		resp.ImageURL = &url
	}
	return resp
}

func ToResponses(list []Note) []Response {
	out := make([]Response, 0, len(list))
	for _, n := range list {
		out = append(out, ToResponse(n))
	}
	return out
}

func (h *Handler) create(c *gin.Context) {
	requestID, ok := parseID(c, "request")
	if !ok {
		return
	}
	c.Set(middleware.AppRequestIDKey, requestID)
	upload.LimitBody(c, extract.MaxImageBytes+(1<<20))

	in := CreateInput{
		Title: c.PostForm("title"),
		Body:  c.PostForm("note"),
	}
	file, present, err := upload.Optional(c, "image", extract.MaxImageBytes)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	if present {
		in.Image = &Image{Name: file.Name, Data: file.Data}
	}

	created, err := h.Svc.Create(c.Request.Context(), middleware.PrincipalFromContext(c), requestID, in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, ToResponse(created))
}

func (h *Handler) image(c *gin.Context) {
	id, ok := parseID(c, "note")
	if !ok {
		return
	}
	rc, n, err := h.Svc.OpenImage(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer rc.Close()

	head := make([]byte, 512)
	read, _ := io.ReadFull(rc, head)
	head = head[:read]
	c.Header("Content-Type", http.DetectContentType(head))
	name := "image"
	if n.ImageName != nil {
		name = *n.ImageName
	}
	c.Header("Content-Disposition", "inline; filename=\""+name+"\"")
	c.Status(http.StatusOK)
	c.Writer.Write(head)
	io.Copy(c.Writer, rc)
}

func parseID(c *gin.Context, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.FromError(c, apperr.NotFound(resource))
		return 0, false
	}
	return id, true
}
