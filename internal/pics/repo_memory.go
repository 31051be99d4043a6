package pics

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	pics map[string]PIC
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{pics: make(map[string]PIC)}
}

func (r *MemoryRepo) List(ctx context.Context) ([]PIC, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PIC, 0, len(r.pics))
	for _, p := range r.pics {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (PIC, error) {
	if err := ctx.Err(); err != nil {
		return PIC{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pics[id]
	if !ok {
		return PIC{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Create(ctx context.Context, p PIC) (PIC, error) {
	if err := ctx.Err(); err != nil {
		return PIC{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pics[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) Update(ctx context.Context, p PIC) (PIC, error) {
	if err := ctx.Err(); err != nil {
		return PIC{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.pics[p.ID]
	if !ok {
		return PIC{}, ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	r.pics[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pics[id]; !ok {
		return ErrNotFound
	}
	delete(r.pics, id)
	return nil
}

func (r *MemoryRepo) ExistingNames(ctx context.Context, names []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	known := make(map[string]bool, len(r.pics))
	for _, p := range r.pics {
		known[strings.ToLower(p.Name)] = true
	}
	var out []string
	for _, n := range names {
		if known[strings.ToLower(n)] {
			out = append(out, n)
		}
	}
	return out, nil
}
