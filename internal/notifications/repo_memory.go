package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Notification
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Notification)}
}

func (r *MemoryRepo) Append(ctx context.Context, batch []Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range batch {
		r.data[n.ID] = n
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Notification, error) {
	if err := ctx.Err(); err != nil {
		return Notification{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.data[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

// ListByUser returns the user's notifications newest first plus the total count.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var mine []Notification
	for _, n := range r.data {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	r.mu.RUnlock()

	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		if mine[i].HistoryID != mine[j].HistoryID {
			return mine[i].HistoryID > mine[j].HistoryID
		}
		return mine[i].ID > mine[j].ID
	})

	total := len(mine)
	if offset >= total {
		return []Notification{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return mine[offset:end], total, nil
}

func (r *MemoryRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.data {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		r.data[id] = n
	}
	return nil
}

func (r *MemoryRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for id, n := range r.data {
		if n.UserID != userID || n.ReadAt != nil {
			continue
		}
		stamp := at
		n.ReadAt = &stamp
		r.data[id] = n
		updated++
	}
	return updated, nil
}

var _ Repo = (*MemoryRepo)(nil)
