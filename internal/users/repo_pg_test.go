package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"urs-backend/internal/shared/access"
)

func TestPGRepoUpsertReturnsStoredRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("new-id", "dinkes@urs.local", "Dinas Kesehatan", "user", "Dinas Kesehatan").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "agency", "created_at", "updated_at"}).
			AddRow("old-id", "dinkes@urs.local", "Dinas Kesehatan", "user", "Dinas Kesehatan", now, now))

	repo := &PGRepo{DB: db}
	got, err := repo.Upsert(context.Background(), User{
		ID:     "new-id",
		Email:  "dinkes@urs.local",
		Name:   "Dinas Kesehatan",
		Role:   access.RoleUser,
		Agency: "Dinas Kesehatan",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got.ID != "old-id" {
		t.Fatalf("expected existing id kept, got %s", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListRecipients(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role = 'admin' OR")).
		WithArgs("Dinas Perhubungan").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "agency", "created_at", "updated_at"}).
			AddRow("a1", "admin@urs.local", "Admin", "admin", "", now, nil).
			AddRow("u1", "dishub@urs.local", "Dinas Perhubungan", "user", "Dinas Perhubungan", now, now))

	repo := &PGRepo{DB: db}
	list, err := repo.ListRecipients(context.Background(), "Dinas Perhubungan")
	if err != nil {
		t.Fatalf("ListRecipients: %v", err)
	}
	if len(list) != 2 || list[0].Role != access.RoleAdmin || list[1].Agency != "Dinas Perhubungan" {
		t.Fatalf("unexpected recipients %+v", list)
	}
	if !list[0].UpdatedAt.Equal(now) {
		t.Fatalf("expected null updated_at to fall back to created_at")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "agency", "created_at", "updated_at"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
