package activities

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu        sync.Mutex
	nextID    int64
	nextSubID int64
	data      map[int64]Activity
	now       func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[int64]Activity), now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemoryRepo) Create(ctx context.Context, a Activity, subNames []string) (Activity, error) {
	if err := ctx.Err(); err != nil {
		return Activity{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	maxIter := 0
	for _, existing := range r.data {
		if existing.RequestID == a.RequestID && existing.Iteration > maxIter {
			maxIter = existing.Iteration
		}
	}
	r.nextID++
	a.ID = r.nextID
	a.Iteration = maxIter + 1
	a.SubActivities = nil
	for _, name := range subNames {
		r.nextSubID++
		a.SubActivities = append(a.SubActivities, SubActivity{ID: r.nextSubID, ActivityID: a.ID, Name: name})
	}
	a.Completed = DeriveCompletion(a.SubActivities)
	a.CreatedAt = r.now()
	a.UpdatedAt = a.CreatedAt
	r.data[a.ID] = a
	return clone(a), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Activity, error) {
	if err := ctx.Err(); err != nil {
		return Activity{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return Activity{}, ErrNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepo) ListByRequest(ctx context.Context, requestID int64) ([]Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Activity
	for _, a := range r.data {
		if a.RequestID == requestID {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Iteration != out[j].Iteration {
			return out[i].Iteration < out[j].Iteration
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int64, patch Patch) (Activity, error) {
	return r.mutate(ctx, id, func(a *Activity) error {
		a.Description = patch.Description
		a.StartDate = patch.StartDate
		a.EndDate = patch.EndDate
		a.PIC = append([]string(nil), patch.PIC...)
		return nil
	})
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) Reorder(ctx context.Context, requestID int64, orderedIDs []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current := make(map[int64]struct{})
	for id, a := range r.data {
		if a.RequestID == requestID {
			current[id] = struct{}{}
		}
	}
	if err := checkOrder(current, orderedIDs); err != nil {
		return err
	}
	now := r.now()
	for i, id := range orderedIDs {
		a := r.data[id]
		a.Iteration = i + 1
		a.UpdatedAt = now
		r.data[id] = a
	}
	return nil
}

func (r *MemoryRepo) AddSubs(ctx context.Context, activityID int64, names []string) (Activity, error) {
	return r.mutate(ctx, activityID, func(a *Activity) error {
		for _, name := range names {
			r.nextSubID++
			a.SubActivities = append(a.SubActivities, SubActivity{ID: r.nextSubID, ActivityID: a.ID, Name: name})
		}
		a.Completed = DeriveCompletion(a.SubActivities)
		return nil
	})
}

func (r *MemoryRepo) ToggleSub(ctx context.Context, subID int64) (Activity, error) {
	return r.mutateSub(ctx, subID, func(a *Activity, idx int) {
		a.SubActivities[idx].Completed = !a.SubActivities[idx].Completed
	})
}

func (r *MemoryRepo) DeleteSub(ctx context.Context, subID int64) (Activity, error) {
	return r.mutateSub(ctx, subID, func(a *Activity, idx int) {
		a.SubActivities = append(a.SubActivities[:idx], a.SubActivities[idx+1:]...)
	})
}

func (r *MemoryRepo) SetCompleted(ctx context.Context, id int64, completed bool) (Activity, error) {
	return r.mutate(ctx, id, func(a *Activity) error {
		if len(a.SubActivities) > 0 {
			return ErrHasSubActivities
		}
		a.Completed = completed
		return nil
	})
}

func (r *MemoryRepo) mutate(ctx context.Context, id int64, fn func(a *Activity) error) (Activity, error) {
	if err := ctx.Err(); err != nil {
		return Activity{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return Activity{}, ErrNotFound
	}
	a = clone(a)
	if err := fn(&a); err != nil {
		return Activity{}, err
	}
	a.UpdatedAt = r.now()
	r.data[id] = a
	return clone(a), nil
}

func (r *MemoryRepo) mutateSub(ctx context.Context, subID int64, fn func(a *Activity, idx int)) (Activity, error) {
	if err := ctx.Err(); err != nil {
		return Activity{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.data {
		for idx, sub := range a.SubActivities {
			if sub.ID != subID {
				continue
			}
			a = clone(a)
			fn(&a, idx)
			a.Completed = DeriveCompletion(a.SubActivities)
			a.UpdatedAt = r.now()
			r.data[id] = a
			return clone(a), nil
		}
	}
	return Activity{}, ErrSubNotFound
}

func clone(a Activity) Activity {
	a.SubActivities = append([]SubActivity(nil), a.SubActivities...)
	a.PIC = append([]string(nil), a.PIC...)
	return a
}

// checkOrder verifies orderedIDs is a permutation of current.
func checkOrder(current map[int64]struct{}, orderedIDs []int64) error {
	if len(orderedIDs) != len(current) {
		return ErrOrderMismatch
	}
	seen := make(map[int64]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := current[id]; !ok {
			return ErrOrderMismatch
		}
		if _, dup := seen[id]; dup {
			return ErrOrderMismatch
		}
		seen[id] = struct{}{}
	}
	return nil
}
