package pics

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const picColumns = `id, name, position, created_at, updated_at`

func (r *PGRepo) List(ctx context.Context) ([]PIC, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+picColumns+` FROM pics ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PIC
	for rows.Next() {
		p, err := scanPIC(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, id string) (PIC, error) {
	return scanPIC(r.DB.QueryRowContext(ctx, `SELECT `+picColumns+` FROM pics WHERE id = $1`, id))
}

func (r *PGRepo) Create(ctx context.Context, p PIC) (PIC, error) {
	const query = `
INSERT INTO pics (id, name, position, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + picColumns
	return scanPIC(r.DB.QueryRowContext(ctx, query, p.ID, p.Name, p.Position, p.CreatedAt, p.UpdatedAt))
}

func (r *PGRepo) Update(ctx context.Context, p PIC) (PIC, error) {
	const query = `
UPDATE pics SET name = $2, position = $3, updated_at = $4
WHERE id = $1
RETURNING ` + picColumns
	return scanPIC(r.DB.QueryRowContext(ctx, query, p.ID, p.Name, p.Position, p.UpdatedAt))
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM pics WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ExistingNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT lower(name) FROM pics`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		known[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if known[strings.ToLower(n)] {
			out = append(out, n)
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPIC(row rowScanner) (PIC, error) {
	var p PIC
	if err := row.Scan(&p.ID, &p.Name, &p.Position, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PIC{}, ErrNotFound
		}
		return PIC{}, err
	}
	return p, nil
}
