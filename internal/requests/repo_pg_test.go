package requests

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"urs-backend/internal/history"
	"urs-backend/internal/lifecycle"
	"urs-backend/internal/notifications"
)

var requestCols = []string{
	"id", "owner_id", "name", "agency", "title", "description", "start_date", "end_date",
	"progress_status", "verification_status", "file_key", "file_name", "created_at", "updated_at",
}

func approveMutation(now time.Time) Mutation {
	return func(current Request) (Request, []history.Entry, error) {
		plan, err := lifecycle.PlanVerification(admin, current.State(), lifecycle.VerificationApproved, "")
		if err != nil {
			return Request{}, nil, err
		}
		next := current.WithState(plan.Next)
		next.UpdatedAt = now
		return next, history.FromSteps(current.ID, admin.UserID, now, plan.Steps), nil
	}
}

func notifyOne(req Request, entry history.Entry) []notifications.Notification {
	return notifications.ForEntry(notifications.Subject{RequestID: req.ID, Title: req.Title}, entry, []string{"health-1"})
}

func expectLockedRequest(mock sqlmock.Sqlmock, now time.Time) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.id = $1 FOR UPDATE OF r")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(
			int64(1), "health-1", "Siti", "Dinas Kesehatan", "Portal Data", "d", start, start.AddDate(0, 1, 0),
			"SUBMITTED", "PENDING", "pdfs/a.pdf", "a.pdf", now, now))
}

func TestPGRepoTransitionWritesEverythingInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	expectLockedRequest(mock, now)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WithArgs(int64(1), "REQUIREMENTS_DRAFTING", "APPROVED", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO request_histories")).
		WithArgs(int64(1), "admin-1", "verification", "APPROVED", nil, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(sqlmock.AnyArg(), "health-1", int64(1), int64(11), notifications.TitleVerification, sqlmock.AnyArg(), "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO request_histories")).
		WithArgs(int64(1), "admin-1", "progress", "REQUIREMENTS_DRAFTING", lifecycle.AutoAdvanceReason, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(sqlmock.AnyArg(), "health-1", int64(1), int64(12), notifications.TitleProgress, sqlmock.AnyArg(), "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	out, err := repo.Transition(context.Background(), 1, approveMutation(now), notifyOne)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if out.Request.Progress != lifecycle.StatusRequirementsDrafting || len(out.Entries) != 2 || len(out.Notifications) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Entries[0].ID != 11 || out.Entries[1].ID != 12 {
		t.Fatalf("entry ids not assigned: %+v", out.Entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoTransitionRollsBackOnNotificationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	expectLockedRequest(mock, now)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO request_histories")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	if _, err := repo.Transition(context.Background(), 1, approveMutation(now), notifyOne); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoTransitionMutationErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	expectLockedRequest(mock, now)
	mock.ExpectRollback()

	refused := errors.New("refused")
	repo := &PGRepo{DB: db}
	_, err = repo.Transition(context.Background(), 1, func(Request) (Request, []history.Entry, error) {
		return Request{}, nil, refused
	}, notifyOne)
	if !errors.Is(err, refused) {
		t.Fatalf("expected mutation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM requests r LEFT JOIN users u ON u.id = r.owner_id WHERE r.agency = $1 AND r.progress_status = $2 AND (r.title ILIKE $3 OR u.name ILIKE $3)")).
		WithArgs("Dinas Kesehatan", "DEVELOPMENT", "%portal%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.created_at DESC, r.id DESC LIMIT $4 OFFSET $5")).
		WithArgs("Dinas Kesehatan", "DEVELOPMENT", "%portal%", 10, 10).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(
			int64(2), "health-1", "Siti", "Dinas Kesehatan", "Portal Data", "d", now, now,
			"DEVELOPMENT", "APPROVED", "pdfs/a.pdf", "a.pdf", now, now))

	repo := &PGRepo{DB: db}
	items, total, err := repo.List(context.Background(), Filter{
		Agency:   "Dinas Kesehatan",
		Progress: lifecycle.StatusDevelopment,
		Search:   "portal",
		Page:     2,
		PerPage:  10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 11 || len(items) != 1 || items[0].OwnerName != "Siti" {
		t.Fatalf("unexpected result %d %+v", total, items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoHistoryDecodesKinds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	cols := []string{"id", "request_id", "actor_id", "name", "kind", "status", "reason", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY h.created_at DESC, h.id DESC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), int64(1), "admin-1", "Admin", "verification", "REJECTED", "scope", now).
			AddRow(int64(1), int64(1), "health-1", "Siti", "", "SUBMITTED", nil, now))

	repo := &PGRepo{DB: db}
	entries, err := repo.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if entries[0].Status != lifecycle.VerificationEntry(lifecycle.VerificationRejected) || *entries[0].Reason != "scope" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Status != lifecycle.ProgressEntry(lifecycle.StatusSubmitted) || entries[1].Reason != nil {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}
