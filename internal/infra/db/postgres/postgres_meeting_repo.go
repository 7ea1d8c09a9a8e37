package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
)

var _ repository.MeetingRepository = (*PostgresMeetingRepo)(nil)

type PostgresMeetingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMeetingRepo(pool *pgxpool.Pool) *PostgresMeetingRepo {
	return &PostgresMeetingRepo{pool: pool}
}

// Create inserts m and fills in its generated ID and CreatedAt.
func (r *PostgresMeetingRepo) Create(ctx context.Context, tx repository.Tx, m *model.Meeting) error {
	const q = `
INSERT INTO meetings (name, email, phone, salesman_name, meeting_date, closed, transcription)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at;`
	row, err := pickRow(ctx, r.pool, tx, q,
		m.Name, m.Email, m.Phone, m.SalesmanName, m.Date, m.Closed, m.Transcription)
	if err != nil {
		return err
	}
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("create meeting: %w", mapPgError(err))
	}
	return nil
}

func (r *PostgresMeetingRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Meeting, error) {
	const q = `
SELECT id, name, email, phone, salesman_name, meeting_date, closed, transcription, created_at
  FROM meetings
 WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var m model.Meeting
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.SalesmanName, &m.Date, &m.Closed, &m.Transcription, &m.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &m, nil
}

func (r *PostgresMeetingRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM meetings;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, scanErr(err)
	}
	return n, nil
}
