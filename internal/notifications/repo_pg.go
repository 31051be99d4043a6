package notifications

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertQuery = `
INSERT INTO notifications (id, user_id, request_id, history_id, title, message, link, read_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)`

// Insert writes a batch through ex, so callers can include it in their own transaction.
func Insert(ctx context.Context, ex Execer, batch []Notification) error {
	for _, n := range batch {
		if _, err := ex.ExecContext(ctx, insertQuery,
			n.ID,
			n.UserID,
			n.RequestID,
			n.HistoryID,
			n.Title,
			n.Message,
			n.Link,
			n.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Append(ctx context.Context, batch []Notification) (err error) {
	if len(batch) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if err = Insert(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit()
}

const selectColumns = `id, user_id, request_id, history_id, title, message, link, read_at, created_at`

func (r *PGRepo) Get(ctx context.Context, id string) (Notification, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, err
	}
	return n, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 {
		limit = 15
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC, history_id DESC, id DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	return count, err
}

func (r *PGRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET read_at = COALESCE(read_at, $1) WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET read_at = $1 WHERE user_id = $2 AND read_at IS NULL`, at, userID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	var link sql.NullString
	var readAt sql.NullTime
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.RequestID,
		&n.HistoryID,
		&n.Title,
		&n.Message,
		&link,
		&readAt,
		&n.CreatedAt,
	); err != nil {
		return Notification{}, err
	}
	if link.Valid {
		n.Link = link.String
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return n, nil
}

var _ Repo = (*PGRepo)(nil)
