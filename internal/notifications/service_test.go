package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
)

func seedInbox(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	base := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	batch := []Notification{
		{ID: "n1", UserID: "user-1", HistoryID: 1, Title: TitleProgress, CreatedAt: base},
		{ID: "n2", UserID: "user-1", HistoryID: 2, Title: TitleVerification, CreatedAt: base.Add(time.Hour)},
		{ID: "n3", UserID: "user-2", HistoryID: 2, Title: TitleVerification, CreatedAt: base.Add(time.Hour)},
	}
	if err := repo.Append(context.Background(), batch); err != nil {
		t.Fatalf("append: %v", err)
	}
	now := base.Add(24 * time.Hour)
	return &Service{Repo: repo, Now: func() time.Time { return now }}, repo
}

func TestServiceListOwnNewestFirst(t *testing.T) {
	svc, _ := seedInbox(t)
	inbox, err := svc.List(context.Background(), access.Principal{UserID: "user-1"}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if inbox.Total != 2 || inbox.Unread != 2 {
		t.Fatalf("unexpected totals %+v", inbox)
	}
	if inbox.Items[0].ID != "n2" || inbox.Items[1].ID != "n1" {
		t.Fatalf("unexpected order: %s, %s", inbox.Items[0].ID, inbox.Items[1].ID)
	}
}

func TestServiceMarkReadRejectsOtherUsers(t *testing.T) {
	svc, repo := seedInbox(t)
	_, err := svc.MarkRead(context.Background(), access.Principal{UserID: "user-2"}, "n1")
	var authErr *apperr.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	n, _ := repo.Get(context.Background(), "n1")
	if n.IsRead() {
		t.Fatalf("notification must stay unread")
	}
}

func TestServiceMarkReadMissing(t *testing.T) {
	svc, _ := seedInbox(t)
	_, err := svc.MarkRead(context.Background(), access.Principal{UserID: "user-1"}, "missing")
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestServiceMarkAllReadOnlyTouchesOwn(t *testing.T) {
	svc, repo := seedInbox(t)
	updated, err := svc.MarkAllRead(context.Background(), access.Principal{UserID: "user-1"})
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}
	other, _ := repo.CountUnread(context.Background(), "user-2")
	if other != 1 {
		t.Fatalf("expected user-2 unread to stay 1, got %d", other)
	}
}
