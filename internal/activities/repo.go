package activities

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("activity not found")
	ErrSubNotFound      = errors.New("sub-activity not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrHasSubActivities = errors.New("completion is derived from sub-activities")
	ErrOrderMismatch    = errors.New("ordered ids must list every activity of the request once")
)

// Repo persists checklists. Every method that changes sub-activities
// recomputes the parent completion in the same transaction.
type Repo interface {
	Create(ctx context.Context, a Activity, subNames []string) (Activity, error)
	Get(ctx context.Context, id int64) (Activity, error)
	ListByRequest(ctx context.Context, requestID int64) ([]Activity, error)
	Update(ctx context.Context, id int64, patch Patch) (Activity, error)
	Delete(ctx context.Context, id int64) error
	// Reorder assigns iterations 1..n following orderedIDs while holding
	// row locks on the request's activities.
	Reorder(ctx context.Context, requestID int64, orderedIDs []int64) error
	AddSubs(ctx context.Context, activityID int64, names []string) (Activity, error)
	ToggleSub(ctx context.Context, subID int64) (Activity, error)
	DeleteSub(ctx context.Context, subID int64) (Activity, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (Activity, error)
}
