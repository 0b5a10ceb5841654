package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type actorRepository struct {
	s *Store
}

func (r *actorRepository) Upsert(ctx context.Context, actor *domain.Actor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if existing, ok := r.s.actors[actor.ID]; ok {
		existing.Name = actor.Name
		existing.Email = actor.Email
		existing.Role = actor.Role
		existing.UpdatedAt = now
		r.s.actors[actor.ID] = existing
		*actor = existing
		return nil
	}

	actor.CreatedAt = now
	actor.UpdatedAt = now
	r.s.actors[actor.ID] = *actor
	return nil
}

func (r *actorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	actor, ok := r.s.actors[id]
	if !ok {
		return nil, fmt.Errorf("actor %s: %w", id, domain.ErrNotFound)
	}
	return &actor, nil
}

func (r *actorRepository) UpdateProfile(ctx context.Context, actor *domain.Actor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.actors[actor.ID]
	if !ok {
		return fmt.Errorf("actor %s: %w", actor.ID, domain.ErrNotFound)
	}
	existing.Name = actor.Name
	existing.Email = actor.Email
	existing.BloodGroup = actor.BloodGroup
	existing.UpdatedAt = r.s.now()
	r.s.actors[actor.ID] = existing
	return nil
}

func (r *actorRepository) UpdateLocation(ctx context.Context, id uuid.UUID, location *domain.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.actors[id]
	if !ok {
		return fmt.Errorf("actor %s: %w", id, domain.ErrNotFound)
	}
	existing.Latitude, existing.Longitude = nil, nil
	if location != nil {
		lat, lng := location.Latitude, location.Longitude
		existing.Latitude, existing.Longitude = &lat, &lng
	}
	existing.UpdatedAt = r.s.now()
	r.s.actors[id] = existing
	return nil
}

func (r *actorRepository) ListLocated(ctx context.Context) ([]domain.Actor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Actor
	for _, a := range r.s.actors {
		if a.Location() != nil && a.Role != domain.RoleAdmin {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) actorName(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	a, ok := s.actors[*id]
	if !ok {
		return nil
	}
	name := a.Name
	return &name
}
