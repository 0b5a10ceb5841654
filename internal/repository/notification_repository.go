package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bloodlink/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, notif *domain.Notification) error
	ListByActor(ctx context.Context, actorID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, actorID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, actorID uuid.UUID) error
	CountUnread(ctx context.Context, actorID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, actor_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		notif.ID, notif.ActorID, notif.Type, notif.Title, notif.Message, notif.Data,
	).Scan(&notif.CreatedAt)
}

func (r *notificationRepository) ListByActor(ctx context.Context, actorID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	params.Validate()

	where := `WHERE actor_id = $1`
	if unreadOnly {
		where += ` AND is_read = false`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications `+where, actorID); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM notifications ` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var notifications []domain.Notification
	err := r.db.SelectContext(ctx, &notifications, query, actorID, params.PageSize, params.Offset())
	return notifications, total, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, actorID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE id = $1 AND actor_id = $2 AND is_read = false`
	_, err := r.db.ExecContext(ctx, query, id, actorID)
	return err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, actorID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE actor_id = $1 AND is_read = false`
	_, err := r.db.ExecContext(ctx, query, actorID)
	return err
}

func (r *notificationRepository) CountUnread(ctx context.Context, actorID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE actor_id = $1 AND is_read = false`
	err := r.db.GetContext(ctx, &count, query, actorID)
	return count, err
}
