package requests

import (
	"context"
	"errors"

	"urs-backend/internal/history"
	"urs-backend/internal/notifications"
)

var (
	ErrNotFound      = errors.New("request not found")
	ErrEntryNotFound = errors.New("history entry not found")
)

// NotifyFunc derives the notification batch for entry once the entry has its stored id.
type NotifyFunc func(req Request, entry history.Entry) []notifications.Notification

// Mutation computes the next request and the entries to append from the
// locked current row. Returning an error aborts the transition.
type Mutation func(current Request) (Request, []history.Entry, error)

// Outcome is what a committed write produced.
type Outcome struct {
	Request       Request
	Entries       []history.Entry
	Notifications []notifications.Notification
}

// Repo persists requests with their append-only history. Create and
// Transition write the request row, its entries and every notification
// batch in one transaction.
type Repo interface {
	Create(ctx context.Context, req Request, first history.Entry, notify NotifyFunc) (Outcome, error)
	Get(ctx context.Context, id int64) (Request, error)
	List(ctx context.Context, f Filter) ([]Request, int, error)
	// History returns entries in canonical order, newest first.
	History(ctx context.Context, requestID int64) ([]history.Entry, error)
	HistoryEntry(ctx context.Context, requestID, entryID int64) (history.Entry, error)
	Transition(ctx context.Context, id int64, mutate Mutation, notify NotifyFunc) (Outcome, error)
}
