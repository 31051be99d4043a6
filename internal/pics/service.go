package pics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
)

const maxFieldLength = 255

type Service struct {
	Repo Repo
	Now  func() time.Time
}

// Input carries the editable fields of a directory entry.
type Input struct {
	Name     string
	Position string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) List(ctx context.Context, actor access.Principal) ([]PIC, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, actor access.Principal, in Input) (PIC, error) {
	if err := requireAdmin(actor); err != nil {
		return PIC{}, err
	}
	in, err := validate(in)
	if err != nil {
		return PIC{}, err
	}
	now := s.now()
	return s.Repo.Create(ctx, PIC{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Position:  in.Position,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Update(ctx context.Context, actor access.Principal, id string, in Input) (PIC, error) {
	if err := requireAdmin(actor); err != nil {
		return PIC{}, err
	}
	in, err := validate(in)
	if err != nil {
		return PIC{}, err
	}
	updated, err := s.Repo.Update(ctx, PIC{ID: id, Name: in.Name, Position: in.Position, UpdatedAt: s.now()})
	if errors.Is(err, ErrNotFound) {
		return PIC{}, apperr.NotFound("pic")
	}
	return updated, err
}

func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("pic")
		}
		return err
	}
	return nil
}

// Unknown returns the names that have no directory entry, in input order.
func (s *Service) Unknown(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	found, err := s.Repo.ExistingNames(ctx, names)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(found))
	for _, n := range found {
		known[strings.ToLower(n)] = true
	}
	var out []string
	for _, n := range names {
		if !known[strings.ToLower(n)] {
			out = append(out, n)
		}
	}
	return out, nil
}

func validate(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Position = strings.TrimSpace(in.Position)
	verr := &apperr.ValidationError{}
	if in.Name == "" {
		verr.Add("name", "name is required")
	} else if len(in.Name) > maxFieldLength {
		verr.Add("name", "name must be at most 255 characters")
	}
	if in.Position == "" {
		verr.Add("position", "position is required")
	} else if len(in.Position) > maxFieldLength {
		verr.Add("position", "position must be at most 255 characters")
	}
	return in, verr.OrNil()
}

func requireAdmin(actor access.Principal) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins can manage people in charge")
	}
	return nil
}
