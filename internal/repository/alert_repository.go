package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bloodlink/internal/domain"
)

type AlertRepository interface {
	// InsertBatch stores alerts and returns the ones that were new. Rows already present
	// for the same (request, cycle, recipient) are skipped.
	InsertBatch(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error)
	CountForCycle(ctx context.Context, requestID uuid.UUID, cycle int) (int, error)
	ListForCycle(ctx context.Context, requestID uuid.UUID, cycle int) ([]domain.Alert, error)
	HasAlert(ctx context.Context, requestID, recipientID uuid.UUID) (bool, error)
	CountAll(ctx context.Context) (int64, error)
}

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) InsertBatch(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error) {
	if len(alerts) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO alerts (id, request_id, cycle, recipient_id, recipient_role, distance_meters, dispatched_at)
		VALUES (:id, :request_id, :cycle, :recipient_id, :recipient_role, :distance_meters, :dispatched_at)
		ON CONFLICT (request_id, cycle, recipient_id) DO NOTHING
		RETURNING *`

	query, args, err := sqlx.Named(query, alerts)
	if err != nil {
		return nil, err
	}

	var inserted []domain.Alert
	err = r.db.SelectContext(ctx, &inserted, r.db.Rebind(query), args...)
	return inserted, err
}

func (r *alertRepository) CountForCycle(ctx context.Context, requestID uuid.UUID, cycle int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM alerts WHERE request_id = $1 AND cycle = $2`
	err := r.db.GetContext(ctx, &count, query, requestID, cycle)
	return count, err
}

func (r *alertRepository) ListForCycle(ctx context.Context, requestID uuid.UUID, cycle int) ([]domain.Alert, error) {
	var alerts []domain.Alert
	query := `SELECT * FROM alerts WHERE request_id = $1 AND cycle = $2 ORDER BY distance_meters, recipient_id`
	err := r.db.SelectContext(ctx, &alerts, query, requestID, cycle)
	return alerts, err
}

func (r *alertRepository) HasAlert(ctx context.Context, requestID, recipientID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM alerts WHERE request_id = $1 AND recipient_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, requestID, recipientID)
	return exists, err
}

func (r *alertRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alerts`)
	return total, err
}
