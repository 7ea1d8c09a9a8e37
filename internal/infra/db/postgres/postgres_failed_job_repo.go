package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
)

var _ repository.FailedJobRepository = (*PostgresFailedJobRepo)(nil)

type PostgresFailedJobRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresFailedJobRepo(pool *pgxpool.Pool) *PostgresFailedJobRepo {
	return &PostgresFailedJobRepo{pool: pool}
}

func (r *PostgresFailedJobRepo) Save(ctx context.Context, tx repository.Tx, f *model.FailedJob) error {
	const q = `
INSERT INTO classification_failures (job_id, meeting_id, attempts, last_error, permanent, failed_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`
	if f.FailedAt.IsZero() {
		f.FailedAt = time.Now().UTC()
	}
	row, err := pickRow(ctx, r.pool, tx, q, f.JobID, f.MeetingID, f.Attempts, f.LastError, f.Permanent, f.FailedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&f.ID); err != nil {
		return fmt.Errorf("save failed job %s: %w", f.JobID, mapPgError(err))
	}
	return nil
}

func (r *PostgresFailedJobRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.FailedJob, error) {
	const q = `
SELECT id, job_id, meeting_id, attempts, last_error, permanent, failed_at
  FROM classification_failures
 ORDER BY failed_at DESC, id DESC
 LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed jobs: %w", err)
	}
	defer rows.Close()

	var out []*model.FailedJob
	for rows.Next() {
		var f model.FailedJob
		if err := rows.Scan(&f.ID, &f.JobID, &f.MeetingID, &f.Attempts, &f.LastError, &f.Permanent, &f.FailedAt); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
