package requests

import (
	"context"
	"sort"
	"strings"
	"sync"

	"urs-backend/internal/history"
	"urs-backend/internal/notifications"
)

// Inbox receives notification batches committed by the memory repo.
type Inbox interface {
	Append(ctx context.Context, batch []notifications.Notification) error
}

type MemoryRepo struct {
	mu          sync.Mutex
	nextID      int64
	nextEntryID int64
	data        map[int64]Request
	entries     map[int64][]history.Entry
	inbox       Inbox
}

func NewMemoryRepo(inbox Inbox) *MemoryRepo {
	return &MemoryRepo{
		data:    make(map[int64]Request),
		entries: make(map[int64][]history.Entry),
		inbox:   inbox,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, req Request, first history.Entry, notify NotifyFunc) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	req.ID = r.nextID
	first.RequestID = req.ID
	saved, batch := r.appendEntries(req, []history.Entry{first}, notify)
	if err := r.deliver(ctx, batch); err != nil {
		return Outcome{}, err
	}
	r.data[req.ID] = req
	r.entries[req.ID] = saved
	return Outcome{Request: req, Entries: saved, Notifications: batch}, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Request, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []Request
	for _, req := range r.data {
		if f.Agency != "" && req.Agency != f.Agency {
			continue
		}
		if f.Progress != "" && req.Progress != f.Progress {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(req.Title), search) &&
			!strings.Contains(strings.ToLower(req.OwnerName), search) {
			continue
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if f.PerPage <= 0 {
		return matched, total, nil
	}
	start := (max(f.Page, 1) - 1) * f.PerPage
	if start >= total {
		return []Request{}, total, nil
	}
	end := min(start+f.PerPage, total)
	return matched[start:end], total, nil
}

func (r *MemoryRepo) History(ctx context.Context, requestID int64) ([]history.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]history.Entry(nil), r.entries[requestID]...)
	history.SortCanonical(out)
	return out, nil
}

func (r *MemoryRepo) HistoryEntry(ctx context.Context, requestID, entryID int64) (history.Entry, error) {
	if err := ctx.Err(); err != nil {
		return history.Entry{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries[requestID] {
		if e.ID == entryID {
			return e, nil
		}
	}
	return history.Entry{}, ErrEntryNotFound
}

func (r *MemoryRepo) Transition(ctx context.Context, id int64, mutate Mutation, notify NotifyFunc) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.data[id]
	if !ok {
		return Outcome{}, ErrNotFound
	}
	next, entries, err := mutate(current)
	if err != nil {
		return Outcome{}, err
	}
	next.ID = current.ID
	for i := range entries {
		entries[i].RequestID = id
	}

	idBefore := r.nextEntryID
	saved, batch := r.appendEntries(next, entries, notify)
	if err := r.deliver(ctx, batch); err != nil {
		r.nextEntryID = idBefore
		return Outcome{}, err
	}
	r.data[id] = next
	r.entries[id] = append(r.entries[id], saved...)
	return Outcome{Request: next, Entries: saved, Notifications: batch}, nil
}

// appendEntries assigns ids and derives notifications; the caller commits both.
func (r *MemoryRepo) appendEntries(req Request, entries []history.Entry, notify NotifyFunc) ([]history.Entry, []notifications.Notification) {
	saved := make([]history.Entry, 0, len(entries))
	var batch []notifications.Notification
	for _, e := range entries {
		r.nextEntryID++
		e.ID = r.nextEntryID
		saved = append(saved, e)
		if notify != nil {
			batch = append(batch, notify(req, e)...)
		}
	}
	return saved, batch
}

func (r *MemoryRepo) deliver(ctx context.Context, batch []notifications.Notification) error {
	if r.inbox == nil || len(batch) == 0 {
		return nil
	}
	return r.inbox.Append(ctx, batch)
}
