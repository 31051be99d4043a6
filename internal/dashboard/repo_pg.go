package dashboard

import (
	"context"
	"database/sql"
	"time"

	"urs-backend/internal/lifecycle"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const totalsQuery = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE progress_status = 'DONE'),
       COUNT(*) FILTER (WHERE verification_status = 'PENDING'),
       COUNT(*) FILTER (WHERE verification_status = 'REJECTED')
FROM requests`

func (r *PGRepo) Counts(ctx context.Context, since time.Time) (Counts, error) {
	c := emptyCounts()
	if err := r.DB.QueryRowContext(ctx, totalsQuery).Scan(&c.Total, &c.Done, &c.PendingVerification, &c.Rejected); err != nil {
		return Counts{}, err
	}

	err := r.grouped(ctx, `SELECT progress_status, COUNT(*) FROM requests GROUP BY progress_status`, func(key string, n int) {
		c.ByStage[lifecycle.ProgressStatus(key)] = n
	})
	if err != nil {
		return Counts{}, err
	}
	err = r.grouped(ctx, `SELECT agency, COUNT(*) FROM requests GROUP BY agency`, func(key string, n int) {
		c.ByAgency[key] = n
	})
	if err != nil {
		return Counts{}, err
	}
	err = r.grouped(ctx, `
SELECT TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COUNT(*)
FROM requests
WHERE created_at >= $1
GROUP BY month`, func(key string, n int) {
		c.PerMonth[key] = n
	}, since)
	if err != nil {
		return Counts{}, err
	}
	return c, nil
}

func (r *PGRepo) grouped(ctx context.Context, query string, put func(key string, n int), args ...any) error {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		put(key, n)
	}
	return rows.Err()
}
