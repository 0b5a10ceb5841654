package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendCampaignExpiredEmail(ctx context.Context, toEmail, ownerName, campaignTitle string, endDate time.Time) error {
	args := m.Called(ctx, toEmail, ownerName, campaignTitle, endDate)
	return args.Error(0)
}

func (m *EmailService) SendRequestCancelledEmail(ctx context.Context, toEmail, recipientName string, bloodGroup, reason string) error {
	args := m.Called(ctx, toEmail, recipientName, bloodGroup, reason)
	return args.Error(0)
}
