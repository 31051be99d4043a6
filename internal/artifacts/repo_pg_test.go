package artifacts

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"urs-backend/internal/lifecycle"
)

func TestPGRepoSetVerification(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	reason := "wrong file"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE artifacts SET verification_status = $2")).
		WithArgs(int64(5), "REJECTED", "wrong file", at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "history_id", "kind", "request_status", "storage_key", "display_name", "mime_type", "verification_status", "reason", "created_at", "updated_at"}).
			AddRow(int64(5), int64(1), int64(10), "document", "DEVELOPMENT", "support_docs/x.pdf", "x.pdf", "application/pdf", "REJECTED", "wrong file", at, at))

	repo := &PGRepo{DB: db}
	got, err := repo.SetVerification(context.Background(), 5, lifecycle.VerificationRejected, &reason, at)
	if err != nil {
		t.Fatalf("SetVerification: %v", err)
	}
	if got.Stage != lifecycle.StatusDevelopment || got.Kind != KindDocument || *got.Reason != "wrong file" {
		t.Fatalf("unexpected artifact %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSetVerificationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE artifacts")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.SetVerification(context.Background(), 9, lifecycle.VerificationApproved, nil, time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
