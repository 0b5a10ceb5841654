package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bloodlink/internal/domain"
)

type RequestEventRepository interface {
	Create(ctx context.Context, event *domain.RequestEvent) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestEvent, error)
	ListRecent(ctx context.Context, limit int) ([]domain.RequestEvent, error)
}

type requestEventRepository struct {
	db *sqlx.DB
}

func NewRequestEventRepository(db *sqlx.DB) RequestEventRepository {
	return &requestEventRepository{db: db}
}

func (r *requestEventRepository) Create(ctx context.Context, event *domain.RequestEvent) error {
	query := `
		INSERT INTO request_events (id, request_id, actor_id, event, from_status, to_status, reason, cycle)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		event.ID, event.RequestID, event.ActorID, event.Event,
		event.FromStatus, event.ToStatus, event.Reason, event.Cycle,
	).Scan(&event.CreatedAt)
}

func (r *requestEventRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestEvent, error) {
	query := `
		SELECT
			ev.*,
			a.name AS actor_name
		FROM request_events ev
		LEFT JOIN actors a ON a.id = ev.actor_id
		WHERE ev.request_id = $1
		ORDER BY ev.created_at DESC`

	var events []domain.RequestEvent
	err := r.db.SelectContext(ctx, &events, query, requestID)
	return events, err
}

func (r *requestEventRepository) ListRecent(ctx context.Context, limit int) ([]domain.RequestEvent, error) {
	query := `
		SELECT
			ev.*,
			a.name AS actor_name
		FROM request_events ev
		LEFT JOIN actors a ON a.id = ev.actor_id
		ORDER BY ev.created_at DESC
		LIMIT $1`

	var events []domain.RequestEvent
	err := r.db.SelectContext(ctx, &events, query, limit)
	return events, err
}
