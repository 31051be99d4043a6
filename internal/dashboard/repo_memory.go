package dashboard

import (
	"context"
	"time"

	"urs-backend/internal/lifecycle"
	"urs-backend/internal/requests"
)

// RequestLister lists every request matching a filter.
type RequestLister interface {
	List(ctx context.Context, f requests.Filter) ([]requests.Request, int, error)
}

// MemoryRepo aggregates over a request listing. Used with the in-memory stack.
type MemoryRepo struct {
	Requests RequestLister
}

func NewMemoryRepo(lister RequestLister) *MemoryRepo {
	return &MemoryRepo{Requests: lister}
}

func (r *MemoryRepo) Counts(ctx context.Context, since time.Time) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	items, _, err := r.Requests.List(ctx, requests.Filter{})
	if err != nil {
		return Counts{}, err
	}
	c := emptyCounts()
	for _, req := range items {
		c.Total++
		if req.Progress == lifecycle.StatusDone {
			c.Done++
		}
		switch req.Verification {
		case lifecycle.VerificationPending:
			c.PendingVerification++
		case lifecycle.VerificationRejected:
			c.Rejected++
		}
		c.ByStage[req.Progress]++
		c.ByAgency[req.Agency]++
		if !req.CreatedAt.Before(since) {
			c.PerMonth[monthKey(req.CreatedAt)]++
		}
	}
	return c, nil
}

func emptyCounts() Counts {
	return Counts{
		ByStage:  make(map[lifecycle.ProgressStatus]int),
		ByAgency: make(map[string]int),
		PerMonth: make(map[string]int),
	}
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
