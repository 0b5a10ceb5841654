package audit

import (
	"context"

	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
)

const maxRecent = 100

// Service exposes the request event log across all requests for administrators.
type Service interface {
	GetRecentActivities(ctx context.Context, limit int) ([]domain.RequestEvent, error)
}

type service struct {
	eventRepo repository.RequestEventRepository
}

func NewService(eventRepo repository.RequestEventRepository) Service {
	return &service{
		eventRepo: eventRepo,
	}
}

func (s *service) GetRecentActivities(ctx context.Context, limit int) ([]domain.RequestEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxRecent {
		limit = maxRecent
	}

	events, err := s.eventRepo.ListRecent(ctx, limit)
	if events == nil {
		events = []domain.RequestEvent{}
	}
	return events, err
}
