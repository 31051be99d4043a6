package users

import (
	"context"
	"database/sql"
	"errors"

	"urs-backend/internal/shared/access"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const userColumns = `id, email, name, role, agency, created_at, updated_at`

func (r *PGRepo) Upsert(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (id, email, name, role, agency, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (email) DO UPDATE SET
  name = EXCLUDED.name,
  role = EXCLUDED.role,
  agency = EXCLUDED.agency,
  updated_at = now()
RETURNING ` + userColumns
	row := r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		user.Agency,
	)
	return scanUser(row)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *PGRepo) List(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY email`
	return r.query(ctx, query)
}

func (r *PGRepo) ListRecipients(ctx context.Context, agency string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'admin' OR (agency <> '' AND agency = $1) ORDER BY email`
	return r.query(ctx, query, agency)
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var role string
	var updatedAt sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.Agency,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = access.ParseRole(role)
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = user.CreatedAt
	}
	return user, nil
}
