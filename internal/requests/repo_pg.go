package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"urs-backend/internal/history"
	"urs-backend/internal/lifecycle"
	"urs-backend/internal/notifications"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const requestSelect = `
SELECT r.id, r.owner_id, COALESCE(u.name, ''), r.agency, r.title, r.description,
       r.start_date, r.end_date, r.progress_status, r.verification_status,
       r.file_key, r.file_name, r.created_at, r.updated_at
FROM requests r
LEFT JOIN users u ON u.id = r.owner_id`

const insertEntryQuery = `
INSERT INTO request_histories (request_id, actor_id, kind, status, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

func (r *PGRepo) Create(ctx context.Context, req Request, first history.Entry, notify NotifyFunc) (out Outcome, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const query = `
INSERT INTO requests (owner_id, agency, title, description, start_date, end_date,
                      progress_status, verification_status, file_key, file_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	if err = tx.QueryRowContext(ctx, query,
		req.OwnerID,
		req.Agency,
		req.Title,
		req.Description,
		req.StartDate,
		req.EndDate,
		string(req.Progress),
		string(req.Verification),
		req.FileKey,
		req.FileName,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID); err != nil {
		return Outcome{}, err
	}

	first.RequestID = req.ID
	out, err = appendEntries(ctx, tx, req, []history.Entry{first}, notify)
	if err != nil {
		return Outcome{}, err
	}
	if err = tx.Commit(); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Request, error) {
	req, err := scanRequest(r.DB.QueryRowContext(ctx, requestSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

func (r *PGRepo) List(ctx context.Context, f Filter) ([]Request, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.Agency != "" {
		args = append(args, f.Agency)
		conds = append(conds, fmt.Sprintf("r.agency = $%d", len(args)))
	}
	if f.Progress != "" {
		args = append(args, string(f.Progress))
		conds = append(conds, fmt.Sprintf("r.progress_status = $%d", len(args)))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+search+"%")
		conds = append(conds, fmt.Sprintf("(r.title ILIKE $%d OR u.name ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM requests r LEFT JOIN users u ON u.id = r.owner_id` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := requestSelect + where + ` ORDER BY r.created_at DESC, r.id DESC`
	if f.PerPage > 0 {
		args = append(args, f.PerPage, (max(f.Page, 1)-1)*f.PerPage)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

const entrySelect = `
SELECT h.id, h.request_id, h.actor_id, COALESCE(u.name, ''), h.kind, h.status, h.reason, h.created_at
FROM request_histories h
LEFT JOIN users u ON u.id = h.actor_id`

func (r *PGRepo) History(ctx context.Context, requestID int64) ([]history.Entry, error) {
	rows, err := r.DB.QueryContext(ctx, entrySelect+` WHERE h.request_id = $1 ORDER BY h.created_at DESC, h.id DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []history.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepo) HistoryEntry(ctx context.Context, requestID, entryID int64) (history.Entry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx, entrySelect+` WHERE h.id = $1 AND h.request_id = $2`, entryID, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Entry{}, ErrEntryNotFound
		}
		return history.Entry{}, err
	}
	return e, nil
}

func (r *PGRepo) Transition(ctx context.Context, id int64, mutate Mutation, notify NotifyFunc) (out Outcome, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	current, err := scanRequest(tx.QueryRowContext(ctx, requestSelect+` WHERE r.id = $1 FOR UPDATE OF r`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return Outcome{}, err
	}

	next, entries, err := mutate(current)
	if err != nil {
		return Outcome{}, err
	}
	next.ID = current.ID

	const update = `
UPDATE requests
SET progress_status = $2, verification_status = $3, end_date = $4, updated_at = $5
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, id, string(next.Progress), string(next.Verification), next.EndDate, next.UpdatedAt); err != nil {
		return Outcome{}, err
	}
	for i := range entries {
		entries[i].RequestID = id
	}
	out, err = appendEntries(ctx, tx, next, entries, notify)
	if err != nil {
		return Outcome{}, err
	}
	if err = tx.Commit(); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// appendEntries inserts entries in order, each followed by its notification batch.
func appendEntries(ctx context.Context, tx *sql.Tx, req Request, entries []history.Entry, notify NotifyFunc) (Outcome, error) {
	out := Outcome{Request: req}
	for _, e := range entries {
		if err := tx.QueryRowContext(ctx, insertEntryQuery,
			e.RequestID,
			e.ActorID,
			string(e.Kind()),
			e.Status.Value(),
			nullableString(e.Reason),
			e.CreatedAt,
		).Scan(&e.ID); err != nil {
			return Outcome{}, fmt.Errorf("insert history entry: %w", err)
		}
		out.Entries = append(out.Entries, e)
		if notify == nil {
			continue
		}
		batch := notify(req, e)
		if err := notifications.Insert(ctx, tx, batch); err != nil {
			return Outcome{}, fmt.Errorf("insert notifications: %w", err)
		}
		out.Notifications = append(out.Notifications, batch...)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var (
		req          Request
		progress     string
		verification string
	)
	if err := row.Scan(
		&req.ID,
		&req.OwnerID,
		&req.OwnerName,
		&req.Agency,
		&req.Title,
		&req.Description,
		&req.StartDate,
		&req.EndDate,
		&progress,
		&verification,
		&req.FileKey,
		&req.FileName,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return Request{}, err
	}
	var err error
	if req.Progress, err = lifecycle.ParseProgressStatus(progress); err != nil {
		return Request{}, fmt.Errorf("request %d: %w", req.ID, err)
	}
	if req.Verification, err = lifecycle.ParseVerificationStatus(verification); err != nil {
		return Request{}, fmt.Errorf("request %d: %w", req.ID, err)
	}
	return req, nil
}

func scanEntry(row rowScanner) (history.Entry, error) {
	var (
		e      history.Entry
		kind   string
		status string
		reason sql.NullString
	)
	if err := row.Scan(&e.ID, &e.RequestID, &e.ActorID, &e.ActorName, &kind, &status, &reason, &e.CreatedAt); err != nil {
		return history.Entry{}, err
	}
	decoded, err := lifecycle.DecodeHistoryStatus(kind, status)
	if err != nil {
		return history.Entry{}, fmt.Errorf("history entry %d: %w", e.ID, err)
	}
	e.Status = decoded
	if reason.Valid {
		e.Reason = &reason.String
	}
	return e, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

