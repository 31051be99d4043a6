package artifacts

import (
	"context"
	"errors"
	"time"

	"urs-backend/internal/lifecycle"
)

var ErrNotFound = errors.New("artifact not found")

type Repo interface {
	Create(ctx context.Context, a Artifact) (Artifact, error)
	Get(ctx context.Context, id int64) (Artifact, error)
	ListByRequest(ctx context.Context, requestID int64) ([]Artifact, error)
	SetVerification(ctx context.Context, id int64, status lifecycle.VerificationStatus, reason *string, at time.Time) (Artifact, error)
}
