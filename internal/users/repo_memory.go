package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"urs-backend/internal/shared/access"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for id, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			user.ID = id
			user.CreatedAt = existing.CreatedAt
			user.UpdatedAt = now
			r.users[id] = user
			return user, nil
		}
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	return r.filter(ctx, func(User) bool { return true })
}

func (r *MemoryRepo) ListRecipients(ctx context.Context, agency string) ([]User, error) {
	return r.filter(ctx, func(u User) bool {
		return u.Role == access.RoleAdmin || (agency != "" && u.Agency == agency)
	})
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(User) bool) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []User
	for _, user := range r.users {
		if keep(user) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
