package notes

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	data   map[int64]Note
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[int64]Note)}
}

func (r *MemoryRepo) Create(ctx context.Context, n Note) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	r.data[n.ID] = n
	return n, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	return n, nil
}

func (r *MemoryRepo) ListByRequest(ctx context.Context, requestID int64) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Note
	for _, n := range r.data {
		if n.RequestID == requestID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
