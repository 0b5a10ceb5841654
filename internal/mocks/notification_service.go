package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"bloodlink/internal/domain"
)

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) List(ctx context.Context, actorID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	args := m.Called(ctx, actorID, unreadOnly, params)
	return args.Get(0).(domain.PaginatedResponse[domain.Notification]), args.Error(1)
}

func (m *NotificationService) MarkAsRead(ctx context.Context, id, actorID uuid.UUID) error {
	args := m.Called(ctx, id, actorID)
	return args.Error(0)
}

func (m *NotificationService) MarkAllAsRead(ctx context.Context, actorID uuid.UUID) error {
	args := m.Called(ctx, actorID)
	return args.Error(0)
}

func (m *NotificationService) GetUnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) PublishAlert(ctx context.Context, req *domain.BloodRequest, alert domain.Alert) error {
	args := m.Called(ctx, req, alert)
	return args.Error(0)
}

func (m *NotificationService) NotifyAccepted(ctx context.Context, req *domain.BloodRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *NotificationService) NotifyFulfilled(ctx context.Context, req *domain.BloodRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *NotificationService) NotifyReleased(ctx context.Context, req *domain.BloodRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *NotificationService) NotifyCancelled(ctx context.Context, req *domain.BloodRequest, formerAccepter uuid.UUID) error {
	args := m.Called(ctx, req, formerAccepter)
	return args.Error(0)
}

func (m *NotificationService) NotifyCampaignExpired(ctx context.Context, c *domain.Campaign) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
