package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInsertWritesEachNotification(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	batch := []Notification{
		{ID: "a", UserID: "admin-1", RequestID: 1, HistoryID: 9, Title: TitleProgress, Message: "m", Link: "l", CreatedAt: at},
		{ID: "b", UserID: "user-1", RequestID: 1, HistoryID: 9, Title: TitleProgress, Message: "m", Link: "l", CreatedAt: at},
	}

	mock.ExpectBegin()
	for _, n := range batch {
		mock.ExpectExec("INSERT INTO notifications").
			WithArgs(n.ID, n.UserID, n.RequestID, n.HistoryID, n.Title, n.Message, n.Link, n.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	if err := repo.Append(context.Background(), batch); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestMarkReadMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE notifications SET read_at").
		WithArgs(at, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.MarkRead(context.Background(), "missing", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
