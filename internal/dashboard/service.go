package dashboard

import (
	"context"
	"sort"
	"time"

	"urs-backend/internal/lifecycle"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
)

// Months is the width of the per-month chart, current month included.
const Months = 12

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Summary returns admin statistics. Stages follow pipeline order with zeros
// kept; agencies are sorted by volume; months run oldest first with gaps filled.
func (s *Service) Summary(ctx context.Context, actor access.Principal) (Summary, error) {
	if !actor.IsAdmin() {
		return Summary{}, apperr.Forbidden("admin only")
	}
	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(Months - 1), 0)

	c, err := s.Repo.Counts(ctx, first)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		Total:               c.Total,
		Done:                c.Done,
		PendingVerification: c.PendingVerification,
		Rejected:            c.Rejected,
	}
	for _, stage := range lifecycle.ProgressStages() {
		out.ByStage = append(out.ByStage, Bucket{Key: string(stage), Label: stage.Label(), Total: c.ByStage[stage]})
	}
	for agency, n := range c.ByAgency {
		out.ByAgency = append(out.ByAgency, Bucket{Key: agency, Label: agency, Total: n})
	}
	sort.Slice(out.ByAgency, func(i, j int) bool {
		if out.ByAgency[i].Total != out.ByAgency[j].Total {
			return out.ByAgency[i].Total > out.ByAgency[j].Total
		}
		return out.ByAgency[i].Key < out.ByAgency[j].Key
	})
	for i := 0; i < Months; i++ {
		m := first.AddDate(0, i, 0)
		key := monthKey(m)
		out.PerMonth = append(out.PerMonth, Bucket{Key: key, Label: m.Format("Jan 2006"), Total: c.PerMonth[key]})
	}
	return out, nil
}
