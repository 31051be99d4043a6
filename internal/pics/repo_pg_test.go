package pics

import (
	"context"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateAndExistingNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pics")).
		WithArgs("p-1", "Rina", "Analis", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "position", "created_at", "updated_at"}).
			AddRow("p-1", "Rina", "Analis", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT lower(name) FROM pics")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("rina").AddRow("budi"))

	repo := &PGRepo{DB: db}
	created, err := repo.Create(context.Background(), PIC{ID: "p-1", Name: "Rina", Position: "Analis", CreatedAt: now, UpdatedAt: now})
	if err != nil || created.ID != "p-1" {
		t.Fatalf("Create: %+v %v", created, err)
	}
	found, err := repo.ExistingNames(context.Background(), []string{"RINA", "Joko"})
	if err != nil {
		t.Fatalf("ExistingNames: %v", err)
	}
	if !reflect.DeepEqual(found, []string{"RINA"}) {
		t.Fatalf("unexpected names %v", found)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pics WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Delete(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
