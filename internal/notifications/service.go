package notifications

import (
	"context"
	"errors"
	"time"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
)

// PageSize is the inbox page length.
const PageSize = 15

// Service exposes a user's inbox.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// Inbox is one page of notifications.
type Inbox struct {
	Items   []Notification
	Total   int
	Unread  int
	Page    int
	PerPage int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) List(ctx context.Context, actor access.Principal, page int) (Inbox, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.Repo.ListByUser(ctx, actor.UserID, PageSize, (page-1)*PageSize)
	if err != nil {
		return Inbox{}, err
	}
	unread, err := s.Repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{Items: items, Total: total, Unread: unread, Page: page, PerPage: PageSize}, nil
}

// MarkRead marks one of the actor's own notifications as read.
func (s *Service) MarkRead(ctx context.Context, actor access.Principal, id string) (Notification, error) {
	n, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notification{}, apperr.NotFound("notification")
		}
		return Notification{}, err
	}
	if n.UserID != actor.UserID {
		return Notification{}, apperr.Forbidden("notification belongs to another user")
	}
	if n.ReadAt != nil {
		return n, nil
	}
	at := s.now()
	if err := s.Repo.MarkRead(ctx, id, at); err != nil {
		return Notification{}, err
	}
	n.ReadAt = &at
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor access.Principal) (int, error) {
	return s.Repo.MarkAllRead(ctx, actor.UserID, s.now())
}
