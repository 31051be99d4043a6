package notes

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("note not found")

type Repo interface {
	Create(ctx context.Context, n Note) (Note, error)
	Get(ctx context.Context, id int64) (Note, error)
	// ListByRequest returns notes newest first.
	ListByRequest(ctx context.Context, requestID int64) ([]Note, error)
}
