package dashboard

import (
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
	rg.GET("/dashboard", h.summary)
}

type bucketResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Total int    `json:"total"`
}

type statsResponse struct {
	TotalRequests       int `json:"totalRequests"`
	CompletedRequests   int `json:"completedRequests"`
	PendingVerification int `json:"pendingVerification"`
	RejectedRequests    int `json:"rejectedRequests"`
}

type chartsResponse struct {
	ByStage  []bucketResponse `json:"requestsByStatus"`
	ByAgency []bucketResponse `json:"requestsByAgency"`
	PerMonth []bucketResponse `json:"requestsOverTime"`
}

type summaryResponse struct {
	Stats  statsResponse  `json:"stats"`
	Charts chartsResponse `json:"charts"`
}

func (h *Handler) summary(c *gin.Context) {
	s, err := h.Svc.Summary(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, summaryResponse{
		Stats: statsResponse{
			TotalRequests:       s.Total,
			CompletedRequests:   s.Done,
			PendingVerification: s.PendingVerification,
			RejectedRequests:    s.Rejected,
		},
		Charts: chartsResponse{
			ByStage:  buckets(s.ByStage),
			ByAgency: buckets(s.ByAgency),
			PerMonth: buckets(s.PerMonth),
		},
	})
}

func buckets(in []Bucket) []bucketResponse {
	out := make([]bucketResponse, 0, len(in))
	for _, b := range in {
		out = append(out, bucketResponse{Key: b.Key, Label: b.Label, Total: b.Total})
	}
	return out
}
