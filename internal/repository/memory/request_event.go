package memory

import (
	"context"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type requestEventRepository struct {
	s *Store
}

func (r *requestEventRepository) Create(ctx context.Context, event *domain.RequestEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.CreatedAt = r.s.now()
	r.s.events = append(r.s.events, *event)
	return nil
}

func (r *requestEventRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.RequestEvent
	for i := len(r.s.events) - 1; i >= 0; i-- {
		ev := r.s.events[i]
		if ev.RequestID != requestID {
			continue
		}
		ev.ActorName = r.s.actorName(&ev.ActorID)
		out = append(out, ev)
	}
	return out, nil
}

func (r *requestEventRepository) ListRecent(ctx context.Context, limit int) ([]domain.RequestEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.RequestEvent
	for i := len(r.s.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := r.s.events[i]
		ev.ActorName = r.s.actorName(&ev.ActorID)
		out = append(out, ev)
	}
	return out, nil
}
