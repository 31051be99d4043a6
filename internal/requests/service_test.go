package requests

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"urs-backend/internal/extract/extracttest"
	"urs-backend/internal/lifecycle"
	"urs-backend/internal/notifications"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/storage/object"
	localstore "urs-backend/internal/shared/storage/object/local"
	"urs-backend/internal/users"
)

var (
	admin  = access.Principal{UserID: "admin-1", Name: "Admin", Role: access.RoleAdmin}
	health = access.Principal{UserID: "health-1", Name: "Siti Rahma", Role: access.RoleUser, Agency: "Dinas Kesehatan"}
	other  = access.Principal{UserID: "transport-1", Name: "Budi", Role: access.RoleUser, Agency: "Dinas Perhubungan"}
)

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	repo  *MemoryRepo
	inbox *notifications.MemoryRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	people := users.NewMemoryRepo()
	for _, u := range []users.User{
		{ID: "admin-1", Email: "admin@urs.local", Name: "Admin", Role: access.RoleAdmin},
		{ID: "health-1", Email: "siti@urs.local", Name: "Siti Rahma", Role: access.RoleUser, Agency: "Dinas Kesehatan"},
		{ID: "health-2", Email: "andi@urs.local", Name: "Andi", Role: access.RoleUser, Agency: "Dinas Kesehatan"},
		{ID: "transport-1", Email: "budi@urs.local", Name: "Budi", Role: access.RoleUser, Agency: "Dinas Perhubungan"},
	} {
		if _, err := people.Upsert(ctx, u); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	inbox := notifications.NewMemoryRepo()
	repo := NewMemoryRepo(inbox)
	return fixture{
		svc: &Service{
			Repo:       repo,
			Store:      localstore.New(t.TempDir()),
			Recipients: users.NewService(people),
			AppBaseURL: "https://urs.example.go.id/",
			Now:        func() time.Time { return fixedNow },
		},
		repo:  repo,
		inbox: inbox,
	}
}

func submit(t *testing.T, f fixture, actor access.Principal, title string) Outcome {
	t.Helper()
	out, err := f.svc.Submit(context.Background(), actor, SubmitInput{
		Title:       title,
		Description: "Aplikasi untuk layanan publik",
		Agency:      "Dinas Kesehatan",
		FileName:    "form.pdf",
		Data:        extracttest.PDF("Permohonan"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return out
}

func TestSubmitCreatesRequestEntryAndNotifications(t *testing.T) {
	f := newFixture(t)
	out := submit(t, f, health, "Sistem Antrian Puskesmas")

	req := out.Request
	if req.Agency != "Dinas Kesehatan" || req.OwnerName != "Siti Rahma" {
		t.Fatalf("unexpected owner data %+v", req)
	}
	if req.Progress != lifecycle.StatusSubmitted || req.Verification != lifecycle.VerificationPending {
		t.Fatalf("unexpected state %s/%s", req.Progress, req.Verification)
	}
	if got := req.StartDate.Format(dateLayout); got != "2024-05-10" {
		t.Fatalf("unexpected start %s", got)
	}
	if got := req.EndDate.Format(dateLayout); got != "2024-06-10" {
		t.Fatalf("unexpected end %s", got)
	}
	if len(out.Entries) != 1 || out.Entries[0].Status != lifecycle.ProgressEntry(lifecycle.StatusSubmitted) || out.Entries[0].Reason != nil {
		t.Fatalf("unexpected entries %+v", out.Entries)
	}
	// admin + both health users, never the other agency.
	if len(out.Notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(out.Notifications))
	}
	for _, n := range out.Notifications {
		if n.UserID == "transport-1" {
			t.Fatalf("other agency notified")
		}
		if n.Link != "https://urs.example.go.id/requests/1" || n.HistoryID != out.Entries[0].ID {
			t.Fatalf("unexpected notification %+v", n)
		}
	}
	inbox, total, err := f.inbox.ListByUser(context.Background(), "health-2", 10, 0)
	if err != nil || total != 1 || inbox[0].Title != notifications.TitleProgress {
		t.Fatalf("inbox not delivered: %v %d %+v", err, total, inbox)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), admin, SubmitInput{
		Title:  " ",
		Agency: "Unknown Office",
		Data:   []byte("not a pdf"),
	})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "description", "agency", "file"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s error, got %v", field, verr.Fields)
		}
	}
}

type failingStore struct{}

func (failingStore) Save(ctx context.Context, folder, name string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("disk full")
}
func (failingStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Delete(ctx context.Context, key string) error { return nil }

func TestSubmitUploadFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.svc.Store = failingStore{}
	_, err := f.svc.Submit(context.Background(), health, SubmitInput{
		Title:       "t",
		Description: "d",
		Data:        extracttest.PDF("x"),
	})
	var ext *apperr.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
	page, err := f.svc.List(context.Background(), admin, ListInput{})
	if err != nil || page.Total != 0 {
		t.Fatalf("expected no requests, got %d (%v)", page.Total, err)
	}
}

type stalledStore struct{ failingStore }

func (stalledStore) Save(ctx context.Context, folder, name string, r io.Reader) (string, int64, string, error) {
	<-ctx.Done()
	return "", 0, "", ctx.Err()
}

func (stalledStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStalledStorageTimesOut(t *testing.T) {
	f := newFixture(t)
	out := submit(t, f, health, "Sistem Antrian Puskesmas")
	f.svc.Store = object.WithTimeout(stalledStore{}, 50*time.Millisecond)

	errs := make(chan error, 2)
	go func() {
		_, err := f.svc.Submit(context.Background(), health, SubmitInput{
			Title:       "t",
			Description: "d",
			Data:        extracttest.PDF("x"),
		})
		errs <- err
		_, _, err = f.svc.OpenFile(context.Background(), health, out.Request.ID)
		errs <- err
	}()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			var ext *apperr.ExternalServiceError
			if !errors.As(err, &ext) || !errors.Is(err, object.ErrTimeout) {
				t.Fatalf("expected storage timeout, got %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("storage call not bounded")
		}
	}
}

func TestVerifyApproveAdvancesOneStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := submit(t, f, health, "Portal Data")

	out, err := f.svc.Verify(ctx, admin, created.Request.ID, "approved", "looks good")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.Request.Verification != lifecycle.VerificationApproved || out.Request.Progress != lifecycle.StatusRequirementsDrafting {
		t.Fatalf("unexpected state %s/%s", out.Request.Progress, out.Request.Verification)
	}
	if len(out.Entries) != 2 || len(out.Notifications) != 6 {
		t.Fatalf("expected 2 entries and 6 notifications, got %d/%d", len(out.Entries), len(out.Notifications))
	}

	entries, err := f.repo.History(ctx, created.Request.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Status != lifecycle.ProgressEntry(lifecycle.StatusRequirementsDrafting) || *entries[0].Reason != lifecycle.AutoAdvanceReason {
		t.Fatalf("expected auto-advance entry first, got %+v", entries[0])
	}
	if entries[1].Status != lifecycle.VerificationEntry(lifecycle.VerificationApproved) || entries[1].ActorName != "Admin" {
		t.Fatalf("expected verification entry second, got %+v", entries[1])
	}
}

func TestVerifyRejectResetsToFirstStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := submit(t, f, health, "Portal Data").Request.ID

	if _, err := f.svc.Verify(ctx, admin, id, "APPROVED", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := f.svc.Verify(ctx, admin, id, "REJECTED", "  ")
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected reason ValidationError, got %v", err)
	}

	out, err := f.svc.Verify(ctx, admin, id, "REJECTED", "incomplete scope")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if out.Request.Progress != lifecycle.StatusSubmitted || out.Request.Verification != lifecycle.VerificationRejected {
		t.Fatalf("unexpected state %s/%s", out.Request.Progress, out.Request.Verification)
	}
	if len(out.Entries) != 1 || out.Notifications[0].Title != notifications.TitleVerification {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestVerifyRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	id := submit(t, f, health, "Portal Data").Request.ID
	_, err := f.svc.Verify(context.Background(), health, id, "APPROVED", "")
	var forbidden *apperr.AuthorizationError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	_, err = f.svc.Verify(context.Background(), admin, 999, "APPROVED", "")
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := submit(t, f, health, "Portal Data").Request.ID

	_, err := f.svc.UpdateProgress(ctx, admin, id, "DEVELOPMENT", "2024-07-01", "")
	var pre *apperr.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError before approval, got %v", err)
	}

	if _, err := f.svc.Verify(ctx, admin, id, "APPROVED", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err = f.svc.UpdateProgress(ctx, admin, id, "DEVELOPMENT", "2024-05-09", "")
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for past end date, got %v", err)
	}

	out, err := f.svc.UpdateProgress(ctx, admin, id, "done", "2024-05-10", "delivered early")
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if out.Request.Progress != lifecycle.StatusDone || out.Request.EndDate.Format(dateLayout) != "2024-05-10" {
		t.Fatalf("unexpected request %+v", out.Request)
	}
	out, err = f.svc.UpdateProgress(ctx, admin, id, "REQUIREMENTS_DRAFTING", "2024-08-01", "")
	if err != nil || out.Request.Progress != lifecycle.StatusRequirementsDrafting {
		t.Fatalf("backward move refused: %v", err)
	}
}

func TestListScopesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	submit(t, f, health, "Sistem Antrian")
	submit(t, f, health, "Portal Data")

	page, err := f.svc.List(ctx, other, ListInput{})
	if err != nil || page.Total != 0 {
		t.Fatalf("other agency should see nothing: %d %v", page.Total, err)
	}
	page, err = f.svc.List(ctx, access.Principal{UserID: "x", Role: access.RoleUser}, ListInput{})
	if err != nil || page.Total != 0 || page.Items == nil {
		t.Fatalf("agency-less user should get an empty page: %+v %v", page, err)
	}
	page, err = f.svc.List(ctx, admin, ListInput{Search: "siti"})
	if err != nil || page.Total != 2 {
		t.Fatalf("owner-name search failed: %d %v", page.Total, err)
	}
	page, err = f.svc.List(ctx, health, ListInput{Search: "PORTAL", Status: "SUBMITTED"})
	if err != nil || page.Total != 1 || page.Items[0].Title != "Portal Data" {
		t.Fatalf("title search failed: %+v %v", page, err)
	}
	_, err = f.svc.List(ctx, admin, ListInput{Status: "SHIPPED"})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDetailAndResolveEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := submit(t, f, health, "Portal Data").Request.ID
	approved, err := f.svc.Verify(ctx, admin, id, "APPROVED", "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := f.svc.Detail(ctx, other, id); err == nil {
		t.Fatalf("expected other agency to be refused")
	}
	d, err := f.svc.Detail(ctx, health, id)
	if err != nil || len(d.History) != 3 {
		t.Fatalf("Detail: %v (%d entries)", err, len(d.History))
	}

	verification := approved.Entries[0]
	ref, err := f.svc.ResolveEntry(ctx, id, verification.ID)
	if err != nil {
		t.Fatalf("ResolveEntry: %v", err)
	}
	if ref.Stage != lifecycle.StatusRequirementsDrafting || ref.Agency != "Dinas Kesehatan" {
		t.Fatalf("unexpected ref %+v", ref)
	}
	_, err = f.svc.ResolveEntry(ctx, id+1, verification.ID)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for mismatched request, got %v", err)
	}
}

type failingInbox struct{}

func (failingInbox) Append(ctx context.Context, batch []notifications.Notification) error {
	return errors.New("inbox unavailable")
}

func TestTransitionIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := submit(t, f, health, "Portal Data").Request.ID

	f.repo.inbox = failingInbox{}
	if _, err := f.svc.Verify(ctx, admin, id, "APPROVED", ""); err == nil {
		t.Fatalf("expected failure")
	}

	req, err := f.repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if req.Verification != lifecycle.VerificationPending || req.Progress != lifecycle.StatusSubmitted {
		t.Fatalf("state changed despite failure: %s/%s", req.Progress, req.Verification)
	}
	entries, _ := f.repo.History(ctx, id)
	if len(entries) != 1 {
		t.Fatalf("history grew despite failure: %d", len(entries))
	}
}
