package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bloodlink/internal/domain"
)

// BloodRequestRepository is the authoritative Request Store.
//
// CompareAndAccept and UpdateIfState are the only mutating calls after Create and
// both are single conditional statements: a caller that lost a race sees ok == false
// and must re-read to learn why.
type BloodRequestRepository interface {
	Create(ctx context.Context, req *domain.BloodRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error)
	GetView(ctx context.Context, id uuid.UUID) (*domain.BloodRequestView, error)
	CompareAndAccept(ctx context.Context, id, accepterID uuid.UUID, at time.Time) (*domain.BloodRequest, bool, error)
	UpdateIfState(ctx context.Context, next *domain.BloodRequest, expected domain.RequestStatus, expectedAccepter *uuid.UUID) (bool, error)
	ListOpenInBox(ctx context.Context, box domain.BoundingBox) ([]domain.BloodRequestView, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, params domain.PaginationParams) ([]domain.BloodRequestView, int64, error)
	ListAcceptedBy(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) ([]domain.BloodRequestView, int64, error)
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error)
}

type bloodRequestRepository struct {
	db *sqlx.DB
}

func NewBloodRequestRepository(db *sqlx.DB) BloodRequestRepository {
	return &bloodRequestRepository{db: db}
}

const bloodRequestViewSelect = `
	SELECT
		br.*,
		rq.name AS requester_name,
		ac.name AS accepter_name,
		cb.name AS cancelled_by_name
	FROM blood_requests br
	JOIN actors rq ON rq.id = br.requester_id
	LEFT JOIN actors ac ON ac.id = COALESCE(br.accepter_id, br.fulfilled_by)
	LEFT JOIN actors cb ON cb.id = br.cancelled_by`

func (r *bloodRequestRepository) Create(ctx context.Context, req *domain.BloodRequest) error {
	query := `
		INSERT INTO blood_requests (id, blood_group, units_needed, latitude, longitude, address,
			contact_phone, note, requester_id, status, reassignment_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.BloodGroup, req.UnitsNeeded, req.Latitude, req.Longitude, req.Address,
		req.ContactPhone, req.Note, req.RequesterID, req.Status, req.ReassignmentCount,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *bloodRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error) {
	var req domain.BloodRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM blood_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blood request %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *bloodRequestRepository) GetView(ctx context.Context, id uuid.UUID) (*domain.BloodRequestView, error) {
	var view domain.BloodRequestView
	err := r.db.GetContext(ctx, &view, bloodRequestViewSelect+` WHERE br.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blood request %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *bloodRequestRepository) CompareAndAccept(ctx context.Context, id, accepterID uuid.UUID, at time.Time) (*domain.BloodRequest, bool, error) {
	query := `
		UPDATE blood_requests
		SET status = 'accepted', accepter_id = $2, accepted_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'active'
		RETURNING *`

	var req domain.BloodRequest
	err := r.db.GetContext(ctx, &req, query, id, accepterID, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &req, true, nil
}

func (r *bloodRequestRepository) UpdateIfState(ctx context.Context, next *domain.BloodRequest, expected domain.RequestStatus, expectedAccepter *uuid.UUID) (bool, error) {
	query := `
		UPDATE blood_requests
		SET status = $4,
			accepter_id = $5,
			accepted_at = $6,
			reassignment_count = $7,
			released_accepter_id = $8,
			fulfilled_by = $9,
			fulfilled_at = $10,
			cancel_reason = $11,
			cancelled_by = $12,
			cancelled_at = $13,
			updated_at = $14
		WHERE id = $1 AND status = $2 AND accepter_id IS NOT DISTINCT FROM $3::uuid`

	res, err := r.db.ExecContext(ctx, query,
		next.ID, expected, expectedAccepter,
		next.Status, next.AccepterID, next.AcceptedAt, next.ReassignmentCount, next.ReleasedAccepterID,
		next.FulfilledBy, next.FulfilledAt, next.CancelReason, next.CancelledBy, next.CancelledAt, next.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *bloodRequestRepository) ListOpenInBox(ctx context.Context, box domain.BoundingBox) ([]domain.BloodRequestView, error) {
	query := bloodRequestViewSelect + `
		WHERE br.status IN ('active', 'accepted')
			AND br.latitude BETWEEN $1 AND $2
			AND br.longitude BETWEEN $3 AND $4
		ORDER BY br.created_at DESC`

	var views []domain.BloodRequestView
	err := r.db.SelectContext(ctx, &views, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	return views, err
}

func (r *bloodRequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID, params domain.PaginationParams) ([]domain.BloodRequestView, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM blood_requests WHERE requester_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, requesterID); err != nil {
		return nil, 0, err
	}

	query := bloodRequestViewSelect + `
		WHERE br.requester_id = $1
		ORDER BY br.created_at DESC
		LIMIT $2 OFFSET $3`

	var views []domain.BloodRequestView
	err := r.db.SelectContext(ctx, &views, query, requesterID, params.PageSize, params.Offset())
	return views, total, err
}

// ListAcceptedBy returns every request the actor has ever accepted, including ones
// it was later released from or that were cancelled afterwards.
func (r *bloodRequestRepository) ListAcceptedBy(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) ([]domain.BloodRequestView, int64, error) {
	params.Validate()

	filter := `br.id IN (SELECT request_id FROM request_events WHERE actor_id = $1 AND event = 'accept')`

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM blood_requests br WHERE `+filter, actorID); err != nil {
		return nil, 0, err
	}

	query := bloodRequestViewSelect + `
		WHERE ` + filter + `
		ORDER BY br.updated_at DESC
		LIMIT $2 OFFSET $3`

	var views []domain.BloodRequestView
	err := r.db.SelectContext(ctx, &views, query, actorID, params.PageSize, params.Offset())
	return views, total, err
}

func (r *bloodRequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	var rows []struct {
		Status domain.RequestStatus `db:"status"`
		Total  int64                `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS total FROM blood_requests GROUP BY status`); err != nil {
		return nil, err
	}

	counts := make(map[domain.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
