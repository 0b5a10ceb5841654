package memory

import (
	"context"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	notif.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, *notif)
	return nil
}

func (r *notificationRepository) ListByActor(ctx context.Context, actorID uuid.UUID, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.ActorID != actorID || (unreadOnly && n.IsRead) {
			continue
		}
		all = append(all, n)
	}
	out, total := paginate(all, params)
	return out, total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, actorID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID == id && n.ActorID == actorID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, actorID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ActorID == actorID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, actorID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, n := range r.s.notifications {
		if n.ActorID == actorID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
