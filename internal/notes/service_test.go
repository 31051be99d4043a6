package notes

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	localstore "urs-backend/internal/shared/storage/object/local"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeRequests map[int64]string

func (f fakeRequests) Agency(ctx context.Context, requestID int64) (string, error) {
	agency, ok := f[requestID]
	if !ok {
		return "", apperr.NotFound("request")
	}
	return agency, nil
}

var (
	admin  = access.Principal{UserID: "admin-1", Role: access.RoleAdmin}
	health = access.Principal{UserID: "u-1", Role: access.RoleUser, Agency: "Dinas Kesehatan"}
	other  = access.Principal{UserID: "u-2", Role: access.RoleUser, Agency: "Dinas Perhubungan"}
)

func newService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Repo:     NewMemoryRepo(),
		Store:    localstore.New(t.TempDir()),
		Requests: fakeRequests{1: "Dinas Kesehatan"},
		Now:      func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) },
	}
}

func TestCreateWithImageAndOpen(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, admin, 1, CreateInput{
		Title: " Kick-off ",
		Body:  "<p>Meeting with the agency</p>",
		Image: &Image{Name: "board.png", Data: pngBytes},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Title != "Kick-off" || n.AuthorID != "admin-1" || !n.HasImage() {
		t.Fatalf("unexpected note %+v", n)
	}
	if !strings.HasPrefix(*n.ImageKey, "note_images/") {
		t.Fatalf("unexpected key %s", *n.ImageKey)
	}

	rc, _, err := svc.OpenImage(ctx, health, n.ID)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != string(pngBytes) {
		t.Fatalf("image bytes differ")
	}

	_, _, err = svc.OpenImage(ctx, other, n.ID)
	var forbidden *apperr.AuthorizationError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), admin, 1, CreateInput{
		Title: "",
		Body:  "<p> </p>",
		Image: &Image{Name: "x.txt", Data: []byte("not an image")},
	})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "note", "image"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, verr.Fields)
		}
	}
}

func TestCreateRequiresAdminAndRequest(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, health, 1, CreateInput{Title: "t", Body: "b"})
	var forbidden *apperr.AuthorizationError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	_, err = svc.Create(ctx, admin, 42, CreateInput{Title: "t", Body: "b"})
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestOpenImageWithoutImage(t *testing.T) {
	svc := newService(t)
	n, err := svc.Create(context.Background(), admin, 1, CreateInput{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _, err = svc.OpenImage(context.Background(), admin, n.ID)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
