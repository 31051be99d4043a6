package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"urs-backend/internal/shared/access"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// GetByEmail looks up a provisioned account; sign-in is refused for unknown emails.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByEmail(ctx, email)
}

// RecipientIDs returns the ids notified about a request of the given agency.
func (s *Service) RecipientIDs(ctx context.Context, agency string) ([]string, error) {
	list, err := s.Repo.ListRecipients(ctx, agency)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	ids := make([]string, 0, len(list))
	for _, u := range list {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// Seed provisions one admin and one user account per agency. Existing
// accounts keep their ids; re-running only refreshes name, role and agency.
func (s *Service) Seed(ctx context.Context, adminEmail, userDomain string) ([]User, error) {
	adminEmail = strings.TrimSpace(adminEmail)
	userDomain = strings.TrimPrefix(strings.TrimSpace(userDomain), "@")
	if adminEmail == "" || userDomain == "" {
		return nil, errors.New("admin email and user domain are required")
	}

	wanted := []User{{
		ID:    uuid.NewString(),
		Email: adminEmail,
		Name:  "Admin User",
		Role:  access.RoleAdmin,
	}}
	for _, agency := range agencies {
		wanted = append(wanted, User{
			ID:     uuid.NewString(),
			Email:  AgencySlug(agency) + "@" + userDomain,
			Name:   agency,
			Role:   access.RoleUser,
			Agency: agency,
		})
	}

	out := make([]User, 0, len(wanted))
	for _, u := range wanted {
		stored, err := s.Repo.Upsert(ctx, u)
		if err != nil {
			return out, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		out = append(out, stored)
	}
	return out, nil
}
