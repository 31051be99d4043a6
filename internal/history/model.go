package history

import (
	"sort"
	"time"

	"urs-backend/internal/lifecycle"
)

// Entry is one immutable record of a status change on a request.
type Entry struct {
	ID        int64
	RequestID int64
	ActorID   string
	ActorName string
	Status    lifecycle.HistoryStatus
	Reason    *string
	CreatedAt time.Time
}

// Kind is the vocabulary of the entry's status.
func (e Entry) Kind() lifecycle.HistoryKind { return e.Status.Kind() }

// Before reports whether a sorts ahead of b in display order:
// newest first, ties broken by the higher id.
func Before(a, b Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortCanonical orders entries newest first in place.
func SortCanonical(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return Before(entries[i], entries[j]) })
}

// FromSteps turns a transition plan into entries stamped with actor and time.
// IDs are assigned by the store.
func FromSteps(requestID int64, actorID string, at time.Time, steps []lifecycle.Step) []Entry {
	out := make([]Entry, 0, len(steps))
	for _, step := range steps {
		out = append(out, Entry{
			RequestID: requestID,
			ActorID:   actorID,
			Status:    step.Status,
			Reason:    step.Reason,
			CreatedAt: at,
		})
	}
	return out
}
