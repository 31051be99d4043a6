package notes

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const noteColumns = `id, request_id, author_id, title, body, image_key, image_name, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, n Note) (Note, error) {
	const query = `
INSERT INTO notes (request_id, author_id, title, body, image_key, image_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		n.RequestID,
		n.AuthorID,
		n.Title,
		n.Body,
		nullString(n.ImageKey),
		nullString(n.ImageName),
		n.CreatedAt,
		n.UpdatedAt,
	).Scan(&n.ID)
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	return n, nil
}

func (r *PGRepo) ListByRequest(ctx context.Context, requestID int64) ([]Note, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE request_id = $1 ORDER BY created_at DESC, id DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var (
		n         Note
		imageKey  sql.NullString
		imageName sql.NullString
	)
	if err := row.Scan(&n.ID, &n.RequestID, &n.AuthorID, &n.Title, &n.Body, &imageKey, &imageName, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return Note{}, err
	}
	if imageKey.Valid {
		n.ImageKey = &imageKey.String
	}
	if imageName.Valid {
		n.ImageName = &imageName.String
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
