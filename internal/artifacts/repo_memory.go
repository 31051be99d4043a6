package artifacts

import (
	"context"
	"sort"
	"sync"
	"time"

	"urs-backend/internal/lifecycle"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Artifact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[int64]Artifact)}
}

func (r *MemoryRepo) Create(ctx context.Context, a Artifact) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.data[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListByRequest(ctx context.Context, requestID int64) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Artifact
	for _, a := range r.data {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) SetVerification(ctx context.Context, id int64, status lifecycle.VerificationStatus, reason *string, at time.Time) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	a.Verification = status
	a.Reason = reason
	a.UpdatedAt = at
	r.data[id] = a
	return a, nil
}
