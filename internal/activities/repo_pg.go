package activities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type PGRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

const activityColumns = `id, request_id, iteration, description, start_date, end_date, pic, completed, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, a Activity, subNames []string) (out Activity, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Activity{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// The request row lock serializes concurrent creates computing max(iteration).
	var locked int64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM requests WHERE id = $1 FOR UPDATE`, a.RequestID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRequestNotFound
		}
		return Activity{}, err
	}
	var maxIter int
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(iteration), 0) FROM development_activities WHERE request_id = $1`, a.RequestID).Scan(&maxIter); err != nil {
		return Activity{}, err
	}

	pic, err := encodePIC(a.PIC)
	if err != nil {
		return Activity{}, err
	}
	now := r.now()
	a.Iteration = maxIter + 1
	a.CreatedAt, a.UpdatedAt = now, now
	a.Completed = false
	const insertActivity = `
INSERT INTO development_activities (request_id, iteration, description, start_date, end_date, pic, completed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING id`
	if err = tx.QueryRowContext(ctx, insertActivity,
		a.RequestID,
		a.Iteration,
		a.Description,
		nullableDate(a.StartDate),
		nullableDate(a.EndDate),
		pic,
		a.Completed,
		now,
	).Scan(&a.ID); err != nil {
		return Activity{}, err
	}

	a.SubActivities, err = insertSubs(ctx, tx, a.ID, subNames)
	if err != nil {
		return Activity{}, err
	}
	if err = tx.Commit(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Activity, error) {
	a, err := scanActivity(r.DB.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM development_activities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Activity{}, ErrNotFound
		}
		return Activity{}, err
	}
	a.SubActivities, err = listSubs(ctx, r.DB, id)
	if err != nil {
		return Activity{}, err
	}
	return a, nil
}

func (r *PGRepo) ListByRequest(ctx context.Context, requestID int64) ([]Activity, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+activityColumns+` FROM development_activities WHERE request_id = $1 ORDER BY iteration, id`, requestID)
	if err != nil {
		return nil, err
	}
	var list []Activity
	index := make(map[int64]int)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[a.ID] = len(list)
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(list) == 0 {
		return nil, nil
	}

	const subsQuery = `
SELECT s.id, s.activity_id, s.name, s.completed
FROM sub_activities s
JOIN development_activities a ON a.id = s.activity_id
WHERE a.request_id = $1
ORDER BY s.id`
	subRows, err := r.DB.QueryContext(ctx, subsQuery, requestID)
	if err != nil {
		return nil, err
	}
	defer subRows.Close()
	for subRows.Next() {
		var s SubActivity
		if err := subRows.Scan(&s.ID, &s.ActivityID, &s.Name, &s.Completed); err != nil {
			return nil, err
		}
		if i, ok := index[s.ActivityID]; ok {
			list[i].SubActivities = append(list[i].SubActivities, s)
		}
	}
	return list, subRows.Err()
}

func (r *PGRepo) Update(ctx context.Context, id int64, patch Patch) (Activity, error) {
	pic, err := encodePIC(patch.PIC)
	if err != nil {
		return Activity{}, err
	}
	const query = `
UPDATE development_activities
SET description = $2, start_date = $3, end_date = $4, pic = $5, updated_at = $6
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, patch.Description, nullableDate(patch.StartDate), nullableDate(patch.EndDate), pic, r.now())
	if err != nil {
		return Activity{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Activity{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM development_activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Reorder(ctx context.Context, requestID int64, orderedIDs []int64) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM development_activities WHERE request_id = $1 ORDER BY id FOR UPDATE`, requestID)
	if err != nil {
		return err
	}
	current := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		current[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if err = checkOrder(current, orderedIDs); err != nil {
		return err
	}
	now := r.now()
	for i, id := range orderedIDs {
		if _, err = tx.ExecContext(ctx, `UPDATE development_activities SET iteration = $2, updated_at = $3 WHERE id = $1`, id, i+1, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepo) AddSubs(ctx context.Context, activityID int64, names []string) (Activity, error) {
	err := r.withActivityLock(ctx, activityID, func(tx *sql.Tx) error {
		_, err := insertSubs(ctx, tx, activityID, names)
		return err
	})
	if err != nil {
		return Activity{}, err
	}
	return r.Get(ctx, activityID)
}

func (r *PGRepo) ToggleSub(ctx context.Context, subID int64) (Activity, error) {
	activityID, err := r.subParent(ctx, subID)
	if err != nil {
		return Activity{}, err
	}
	err = r.withActivityLock(ctx, activityID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE sub_activities SET completed = NOT completed WHERE id = $1 AND activity_id = $2`, subID, activityID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSubNotFound
		}
		return nil
	})
	if err != nil {
		return Activity{}, err
	}
	return r.Get(ctx, activityID)
}

func (r *PGRepo) DeleteSub(ctx context.Context, subID int64) (Activity, error) {
	activityID, err := r.subParent(ctx, subID)
	if err != nil {
		return Activity{}, err
	}
	err = r.withActivityLock(ctx, activityID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sub_activities WHERE id = $1 AND activity_id = $2`, subID, activityID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSubNotFound
		}
		return nil
	})
	if err != nil {
		return Activity{}, err
	}
	return r.Get(ctx, activityID)
}

func (r *PGRepo) SetCompleted(ctx context.Context, id int64, completed bool) (out Activity, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Activity{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = lockActivity(ctx, tx, id); err != nil {
		return Activity{}, err
	}
	var subs int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sub_activities WHERE activity_id = $1`, id).Scan(&subs); err != nil {
		return Activity{}, err
	}
	if subs > 0 {
		err = ErrHasSubActivities
		return Activity{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE development_activities SET completed = $2, updated_at = $3 WHERE id = $1`, id, completed, r.now()); err != nil {
		return Activity{}, err
	}
	if err = tx.Commit(); err != nil {
		return Activity{}, err
	}
	return r.Get(ctx, id)
}

// withActivityLock runs fn with the activity row locked, then recomputes
// the derived completion before committing.
func (r *PGRepo) withActivityLock(ctx context.Context, activityID int64, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = lockActivity(ctx, tx, activityID); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	subs, err := listSubs(ctx, tx, activityID)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE development_activities SET completed = $2, updated_at = $3 WHERE id = $1`, activityID, DeriveCompletion(subs), r.now()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepo) subParent(ctx context.Context, subID int64) (int64, error) {
	var activityID int64
	err := r.DB.QueryRowContext(ctx, `SELECT activity_id FROM sub_activities WHERE id = $1`, subID).Scan(&activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSubNotFound
		}
		return 0, err
	}
	return activityID, nil
}

func lockActivity(ctx context.Context, tx *sql.Tx, id int64) error {
	var locked int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM development_activities WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertSubs(ctx context.Context, q queryer, activityID int64, names []string) ([]SubActivity, error) {
	out := make([]SubActivity, 0, len(names))
	for _, name := range names {
		s := SubActivity{ActivityID: activityID, Name: name}
		if err := q.QueryRowContext(ctx, `INSERT INTO sub_activities (activity_id, name, completed) VALUES ($1, $2, FALSE) RETURNING id`, activityID, name).Scan(&s.ID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func listSubs(ctx context.Context, q queryer, activityID int64) ([]SubActivity, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, activity_id, name, completed FROM sub_activities WHERE activity_id = $1 ORDER BY id`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubActivity
	for rows.Next() {
		var s SubActivity
		if err := rows.Scan(&s.ID, &s.ActivityID, &s.Name, &s.Completed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (Activity, error) {
	var (
		a         Activity
		startDate sql.NullTime
		endDate   sql.NullTime
		pic       []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.RequestID,
		&a.Iteration,
		&a.Description,
		&startDate,
		&endDate,
		&pic,
		&a.Completed,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return Activity{}, err
	}
	if startDate.Valid {
		a.StartDate = &startDate.Time
	}
	if endDate.Valid {
		a.EndDate = &endDate.Time
	}
	if len(pic) > 0 {
		if err := json.Unmarshal(pic, &a.PIC); err != nil {
			return Activity{}, fmt.Errorf("activity %d pic: %w", a.ID, err)
		}
	}
	return a, nil
}

func encodePIC(pic []string) (string, error) {
	if pic == nil {
		pic = []string{}
	}
	raw, err := json.Marshal(pic)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
