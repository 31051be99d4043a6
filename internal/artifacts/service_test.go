package artifacts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"urs-backend/internal/lifecycle"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	localstore "urs-backend/internal/shared/storage/object/local"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeRequests struct {
	refs    map[int64]EntryRef
	agency  string
	lookups int
}

func (f *fakeRequests) ResolveEntry(ctx context.Context, requestID, entryID int64) (EntryRef, error) {
	f.lookups++
	ref, ok := f.refs[entryID]
	if !ok || ref.RequestID != requestID {
		return EntryRef{}, apperr.NotFound("history entry")
	}
	return ref, nil
}

func (f *fakeRequests) Agency(ctx context.Context, requestID int64) (string, error) {
	return f.agency, nil
}

type failingStore struct{}

func (failingStore) Save(ctx context.Context, folder, name string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("bucket unavailable")
}
func (failingStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("bucket unavailable")
}
func (failingStore) Delete(ctx context.Context, key string) error { return nil }

var (
	admin  = access.Principal{UserID: "admin-1", Role: access.RoleAdmin}
	health = access.Principal{UserID: "u-health", Role: access.RoleUser, Agency: "Dinas Kesehatan"}
	other  = access.Principal{UserID: "u-dishub", Role: access.RoleUser, Agency: "Dinas Perhubungan"}
)

func newService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	return &Service{
		Repo:  repo,
		Store: localstore.New(t.TempDir()),
		Requests: &fakeRequests{
			agency: "Dinas Kesehatan",
			refs: map[int64]EntryRef{
				10: {RequestID: 1, Agency: "Dinas Kesehatan", Stage: lifecycle.StatusDevelopment},
			},
		},
		Now: func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	}, repo
}

func TestAddImageRecordsStageAndPending(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.Add(context.Background(), health, AddInput{RequestID: 1, HistoryID: 10, Kind: KindImage, FileName: "screen.png", Data: pngBytes})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.Stage != lifecycle.StatusDevelopment || got.Verification != lifecycle.VerificationPending {
		t.Fatalf("unexpected artifact %+v", got)
	}
	if !strings.HasPrefix(got.StorageKey, "images/") || got.MimeType != "image/png" {
		t.Fatalf("unexpected storage %s %s", got.StorageKey, got.MimeType)
	}
}

func TestAddRejectsEntryOfAnotherRequest(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Add(context.Background(), admin, AddInput{RequestID: 2, HistoryID: 10, Kind: KindImage, Data: pngBytes})
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAddRequiresSameAgency(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Add(context.Background(), other, AddInput{RequestID: 1, HistoryID: 10, Kind: KindImage, Data: pngBytes})
	var ae *apperr.AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestAddDocumentMustBePDF(t *testing.T) {
	svc, repo := newService(t)
	_, err := svc.Add(context.Background(), admin, AddInput{RequestID: 1, HistoryID: 10, Kind: KindDocument, Data: pngBytes})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Fields["file"] == "" {
		t.Fatalf("expected file validation error, got %v", err)
	}
	list, _ := repo.ListByRequest(context.Background(), 1)
	if len(list) != 0 {
		t.Fatalf("expected nothing recorded, got %d", len(list))
	}
}

func TestAddUploadFailureWritesNothing(t *testing.T) {
	svc, repo := newService(t)
	svc.Store = failingStore{}
	_, err := svc.Add(context.Background(), admin, AddInput{RequestID: 1, HistoryID: 10, Kind: KindImage, Data: pngBytes})
	var ext *apperr.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
	list, _ := repo.ListByRequest(context.Background(), 1)
	if len(list) != 0 {
		t.Fatalf("expected nothing recorded, got %d", len(list))
	}
}

func TestVerifyArtifact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	created, err := svc.Add(ctx, admin, AddInput{RequestID: 1, HistoryID: 10, Kind: KindImage, Data: pngBytes})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := svc.Verify(ctx, health, created.ID, "APPROVED", ""); err == nil {
		t.Fatalf("expected non-admin to be refused")
	}
	if _, err := svc.Verify(ctx, admin, created.ID, "REJECTED", " "); err == nil {
		t.Fatalf("expected reason to be required")
	}
	if _, err := svc.Verify(ctx, admin, created.ID, "PENDING", ""); err == nil {
		t.Fatalf("expected PENDING to be refused as a decision")
	}
	got, err := svc.Verify(ctx, admin, created.ID, "REJECTED", "blurry")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Verification != lifecycle.VerificationRejected || got.Reason == nil || *got.Reason != "blurry" {
		t.Fatalf("unexpected artifact %+v", got)
	}
	if _, err := svc.Verify(ctx, admin, 999, "APPROVED", ""); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestOpenChecksAgency(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	created, err := svc.Add(ctx, health, AddInput{RequestID: 1, HistoryID: 10, Kind: KindImage, Data: pngBytes})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, _, err := svc.Open(ctx, other, created.ID); err == nil {
		t.Fatalf("expected other agency to be refused")
	}
	rc, a, err := svc.Open(ctx, health, created.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != string(pngBytes) || a.ID != created.ID {
		t.Fatalf("unexpected body")
	}
}
