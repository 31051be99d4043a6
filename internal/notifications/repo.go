package notifications

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

// Repo persists inbox items.
type Repo interface {
	Append(ctx context.Context, batch []Notification) error
	Get(ctx context.Context, id string) (Notification, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
}
