package actor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/geo"
	"bloodlink/internal/pkg/validation"
	"bloodlink/internal/repository"
)

// Service owns an actor's profile and the location it pushes. Every change that
// affects matching is mirrored into the geo index.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Actor, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input domain.UpdateProfileInput) (*domain.Actor, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, input domain.UpdateLocationInput) (*domain.Actor, error)
}

type service struct {
	actorRepo repository.ActorRepository
	index     geo.Index
	logger    *zap.Logger
}

func NewService(actorRepo repository.ActorRepository, index geo.Index, logger *zap.Logger) Service {
	return &service{actorRepo: actorRepo, index: index, logger: logger}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	return s.actorRepo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input domain.UpdateProfileInput) (*domain.Actor, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	a, err := s.actorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		a.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		a.Email = input.Email
	}
	if input.BloodGroup != nil {
		if !input.BloodGroup.IsValid() {
			return nil, domain.Validationf("blood_group %q is not one of the 8 ABO/Rh groups", *input.BloodGroup)
		}
		if a.Role != domain.RoleDonor {
			return nil, domain.Validationf("only donors carry a blood group")
		}
		a.BloodGroup = input.BloodGroup
	}

	if err := s.actorRepo.UpdateProfile(ctx, a); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := s.syncIndex(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) UpdateLocation(ctx context.Context, id uuid.UUID, input domain.UpdateLocationInput) (*domain.Actor, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var loc *domain.Point
	if input.Latitude != nil && input.Longitude != nil {
		loc = &domain.Point{Latitude: *input.Latitude, Longitude: *input.Longitude}
		if !loc.Indexable() {
			return nil, domain.Validationf("latitude must be within ±%g", domain.MaxGeoLatitude)
		}
	}

	if err := s.actorRepo.UpdateLocation(ctx, id, loc); err != nil {
		return nil, err
	}

	a, err := s.actorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.syncIndex(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Debug("actor location updated", zap.String("actor_id", id.String()), zap.Bool("cleared", loc == nil))
	return a, nil
}

func (s *service) syncIndex(ctx context.Context, a *domain.Actor) error {
	loc, ok := geo.FromActor(*a)
	if !ok || !a.Role.CanRespond() {
		if err := s.index.Remove(ctx, a.ID); err != nil {
			return fmt.Errorf("geo index: %w", err)
		}
		return nil
	}
	if err := s.index.Upsert(ctx, loc); err != nil {
		return fmt.Errorf("geo index: %w", err)
	}
	return nil
}
