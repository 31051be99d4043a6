package dashboard

import (
	"context"
	"time"
)

// Repo aggregates requests. since bounds PerMonth only.
type Repo interface {
	Counts(ctx context.Context, since time.Time) (Counts, error)
}
