package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
)

var _ repository.ClassificationRepository = (*PostgresClassificationRepo)(nil)

type PostgresClassificationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresClassificationRepo(pool *pgxpool.Pool) *PostgresClassificationRepo {
	return &PostgresClassificationRepo{pool: pool}
}

// Create is a plain INSERT. The unique constraint on meeting_id decides concurrent races;
// the loser gets domain.ErrAlreadyExists.
func (r *PostgresClassificationRepo) Create(ctx context.Context, tx repository.Tx, c *model.Classification) error {
	const q = `
INSERT INTO classifications (
  meeting_id, commercial_sector, lead_source, interest_reason,
  has_demand_peaks, has_seasonal_demand,
  estimated_daily_interactions, estimated_weekly_interactions, estimated_monthly_interactions,
  has_tech_team, vambe_model,
  is_potential_client, is_problem_client, is_lost_client, should_be_contacted,
  confidence_score, model_version
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
RETURNING id, created_at;`

	var vambe sql.NullString
	if c.VambeModel != nil {
		vambe = sql.NullString{String: string(*c.VambeModel), Valid: true}
	}
	row, err := pickRow(ctx, r.pool, tx, q,
		c.MeetingID, string(c.CommercialSector), string(c.LeadSource), string(c.InterestReason),
		c.HasDemandPeaks, c.HasSeasonalDemand,
		c.EstimatedDailyInteractions, c.EstimatedWeeklyInteractions, c.EstimatedMonthlyInteractions,
		c.HasTechTeam, vambe,
		c.IsPotentialClient, c.IsProblemClient, c.IsLostClient, c.ShouldBeContacted,
		c.ConfidenceScore, c.ModelVersion,
	)
	if err != nil {
		return err
	}
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("create classification for meeting %d: %w", c.MeetingID, mapPgError(err))
	}
	return nil
}

func (r *PostgresClassificationRepo) FindByMeetingID(ctx context.Context, tx repository.Tx, meetingID int64) (*model.Classification, error) {
	const q = `
SELECT id, meeting_id, commercial_sector, lead_source, interest_reason,
       has_demand_peaks, has_seasonal_demand,
       estimated_daily_interactions, estimated_weekly_interactions, estimated_monthly_interactions,
       has_tech_team, vambe_model,
       is_potential_client, is_problem_client, is_lost_client, should_be_contacted,
       confidence_score, model_version, created_at
  FROM classifications
 WHERE meeting_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, meetingID)
	if err != nil {
		return nil, err
	}

	var (
		c                        model.Classification
		sector, source, interest string
		vambe                    sql.NullString
	)
	if err := row.Scan(
		&c.ID, &c.MeetingID, &sector, &source, &interest,
		&c.HasDemandPeaks, &c.HasSeasonalDemand,
		&c.EstimatedDailyInteractions, &c.EstimatedWeeklyInteractions, &c.EstimatedMonthlyInteractions,
		&c.HasTechTeam, &vambe,
		&c.IsPotentialClient, &c.IsProblemClient, &c.IsLostClient, &c.ShouldBeContacted,
		&c.ConfidenceScore, &c.ModelVersion, &c.CreatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	c.CommercialSector = model.CommercialSector(sector)
	c.LeadSource = model.LeadSource(source)
	c.InterestReason = model.InterestReason(interest)
	if vambe.Valid {
		v := model.VambeModel(vambe.String)
		c.VambeModel = &v
	}
	return &c, nil
}
