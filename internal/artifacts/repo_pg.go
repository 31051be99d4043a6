package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"urs-backend/internal/lifecycle"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const artifactColumns = `id, request_id, history_id, kind, request_status, storage_key, display_name, mime_type, verification_status, reason, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, a Artifact) (Artifact, error) {
	const query = `
INSERT INTO artifacts (request_id, history_id, kind, request_status, storage_key, display_name, mime_type, verification_status, reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		a.RequestID,
		a.HistoryID,
		string(a.Kind),
		string(a.Stage),
		a.StorageKey,
		a.DisplayName,
		a.MimeType,
		string(a.Verification),
		nullableString(a.Reason),
		a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return Artifact{}, err
	}
	a.UpdatedAt = a.CreatedAt
	return a, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Artifact, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	return a, nil
}

func (r *PGRepo) ListByRequest(ctx context.Context, requestID int64) ([]Artifact, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE request_id = $1 ORDER BY id`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) SetVerification(ctx context.Context, id int64, status lifecycle.VerificationStatus, reason *string, at time.Time) (Artifact, error) {
	const query = `
UPDATE artifacts SET verification_status = $2, reason = $3, updated_at = $4
WHERE id = $1
RETURNING ` + artifactColumns
	row := r.DB.QueryRowContext(ctx, query, id, string(status), nullableString(reason), at)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var (
		a            Artifact
		kind         string
		stage        string
		verification string
		reason       sql.NullString
	)
	if err := row.Scan(
		&a.ID,
		&a.RequestID,
		&a.HistoryID,
		&kind,
		&stage,
		&a.StorageKey,
		&a.DisplayName,
		&a.MimeType,
		&verification,
		&reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return Artifact{}, err
	}
	a.Kind = Kind(kind)
	var err error
	if a.Stage, err = lifecycle.ParseProgressStatus(stage); err != nil {
		return Artifact{}, fmt.Errorf("artifact %d: %w", a.ID, err)
	}
	if a.Verification, err = lifecycle.ParseVerificationStatus(verification); err != nil {
		return Artifact{}, fmt.Errorf("artifact %d: %w", a.ID, err)
	}
	if reason.Valid {
		a.Reason = &reason.String
	}
	return a, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
