package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/mocks"
	"bloodlink/internal/pkg/i18n"
	"bloodlink/internal/repository/memory"
	"bloodlink/internal/service/notification"
)

func TestPublishAlertWritesFeedRow(t *testing.T) {
	require.NoError(t, i18n.LoadDefault())
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	svc := notification.NewService(repos.Notification, repos.Actor, nil, "en", zap.NewNop())

	recipient := uuid.New()
	req := &domain.BloodRequest{ID: uuid.New(), BloodGroup: domain.BloodONeg, UnitsNeeded: 2, Address: "Victoria Hospital"}
	alert := domain.Alert{ID: uuid.New(), RequestID: req.ID, RecipientID: recipient, RecipientRole: domain.RoleDonor, DistanceMeters: 2000}

	require.NoError(t, svc.PublishAlert(ctx, req, alert))

	page, err := svc.List(ctx, recipient, true, domain.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, domain.NotifBloodAlert, page.Data[0].Type)
	assert.Equal(t, "Urgent: O- blood needed", page.Data[0].Title)
	assert.Contains(t, page.Data[0].Message, "2.0 km")
	assert.Contains(t, string(page.Data[0].Data), req.ID.String())

	count, err := svc.GetUnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAsRead(ctx, page.Data[0].ID, uuid.New()))
	count, _ = svc.GetUnreadCount(ctx, recipient)
	assert.Equal(t, int64(1), count, "another actor cannot mark the row read")

	require.NoError(t, svc.MarkAllAsRead(ctx, recipient))
	count, _ = svc.GetUnreadCount(ctx, recipient)
	assert.Equal(t, int64(0), count)
}

func TestNotifyCampaignExpiredSendsEmail(t *testing.T) {
	require.NoError(t, i18n.LoadDefault())
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	emailSvc := new(mocks.EmailService)
	svc := notification.NewService(repos.Notification, repos.Actor, emailSvc, "en", zap.NewNop())

	ownerEmail := "ngo@example.org"
	owner := &domain.Actor{ID: uuid.New(), Name: "Red Drop", Email: &ownerEmail, Role: domain.RoleNGO}
	require.NoError(t, repos.Actor.Upsert(ctx, owner))

	c := &domain.Campaign{ID: uuid.New(), OwnerID: owner.ID, Title: "City Drive", EndDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	emailSvc.On("SendCampaignExpiredEmail", mock.Anything, ownerEmail, "Red Drop", "City Drive", c.EndDate).Return(nil).Once()

	require.NoError(t, svc.NotifyCampaignExpired(ctx, c))
	emailSvc.AssertExpectations(t)

	page, err := svc.List(ctx, owner.ID, false, domain.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, domain.NotifCampaignExpired, page.Data[0].Type)
}

func TestNotifyAcceptedSkipsWithoutAccepter(t *testing.T) {
	repos := memory.NewStore().Repositories()
	svc := notification.NewService(repos.Notification, repos.Actor, nil, "en", zap.NewNop())

	req := &domain.BloodRequest{ID: uuid.New(), RequesterID: uuid.New()}
	require.NoError(t, svc.NotifyAccepted(context.Background(), req))

	count, err := svc.GetUnreadCount(context.Background(), req.RequesterID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
