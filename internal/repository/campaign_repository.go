package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bloodlink/internal/domain"
)

type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	// Update writes the editable fields of a campaign that has not been ended.
	Update(ctx context.Context, c *domain.Campaign) (bool, error)
	// End marks the campaign ended. It reports false when the campaign was already ended.
	End(ctx context.Context, id uuid.UUID, unitsCollected int, at time.Time) (bool, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params domain.PaginationParams) ([]domain.Campaign, int64, error)
	ListExpired(ctx context.Context, now time.Time, ownerID *uuid.UUID) ([]domain.Campaign, error)
}

type campaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (id, owner_id, title, start_date, end_date, partner_bank_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	if c.PartnerBankIDs == nil {
		c.PartnerBankIDs = pq.StringArray{}
	}
	return r.db.QueryRowxContext(ctx, query,
		c.ID, c.OwnerID, c.Title, c.StartDate, c.EndDate, c.PartnerBankIDs,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *campaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.db.GetContext(ctx, &c, `SELECT * FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) Update(ctx context.Context, c *domain.Campaign) (bool, error) {
	query := `
		UPDATE campaigns
		SET title = $2, start_date = $3, end_date = $4, partner_bank_ids = $5, updated_at = NOW()
		WHERE id = $1 AND NOT ended
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.Title, c.StartDate, c.EndDate, c.PartnerBankIDs,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *campaignRepository) End(ctx context.Context, id uuid.UUID, unitsCollected int, at time.Time) (bool, error) {
	query := `
		UPDATE campaigns
		SET ended = true, ended_at = $3, blood_units_collected = $2, updated_at = $3
		WHERE id = $1 AND NOT ended`

	res, err := r.db.ExecContext(ctx, query, id, unitsCollected, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *campaignRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params domain.PaginationParams) ([]domain.Campaign, int64, error) {
	params.Validate()

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns WHERE owner_id = $1`, ownerID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT * FROM campaigns
		WHERE owner_id = $1
		ORDER BY start_date DESC
		LIMIT $2 OFFSET $3`

	var campaigns []domain.Campaign
	err := r.db.SelectContext(ctx, &campaigns, query, ownerID, params.PageSize, params.Offset())
	return campaigns, total, err
}

func (r *campaignRepository) ListExpired(ctx context.Context, now time.Time, ownerID *uuid.UUID) ([]domain.Campaign, error) {
	query := `
		SELECT * FROM campaigns
		WHERE NOT ended AND end_date < $1 AND ($2::uuid IS NULL OR owner_id = $2::uuid)
		ORDER BY end_date`

	var campaigns []domain.Campaign
	err := r.db.SelectContext(ctx, &campaigns, query, now, ownerID)
	return campaigns, err
}
