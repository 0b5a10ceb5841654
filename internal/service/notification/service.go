package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/pkg/i18n"
	"bloodlink/internal/repository"
	"bloodlink/internal/service/email"
)

// Service is the in-app feed. Dispatched alerts and lifecycle updates become feed rows;
// getting them onto a device is the delivery layer's job.
type Service interface {
	List(ctx context.Context, actorID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	MarkAsRead(ctx context.Context, id, actorID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, actorID uuid.UUID) error
	GetUnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error)

	PublishAlert(ctx context.Context, req *domain.BloodRequest, alert domain.Alert) error
	NotifyAccepted(ctx context.Context, req *domain.BloodRequest) error
	NotifyFulfilled(ctx context.Context, req *domain.BloodRequest) error
	NotifyReleased(ctx context.Context, req *domain.BloodRequest) error
	NotifyCancelled(ctx context.Context, req *domain.BloodRequest, formerAccepter uuid.UUID) error
	NotifyCampaignExpired(ctx context.Context, c *domain.Campaign) error
}

type service struct {
	notifRepo repository.NotificationRepository
	actorRepo repository.ActorRepository
	emailSvc  email.Service
	locale    string
	logger    *zap.Logger
}

func NewService(
	notifRepo repository.NotificationRepository,
	actorRepo repository.ActorRepository,
	emailSvc email.Service,
	locale string,
	logger *zap.Logger,
) Service {
	return &service{
		notifRepo: notifRepo,
		actorRepo: actorRepo,
		emailSvc:  emailSvc,
		locale:    locale,
		logger:    logger,
	}
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	notifications, total, err := s.notifRepo.ListByActor(ctx, actorID, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}

	return domain.NewPaginatedResponse(notifications, params, total), nil
}

func (s *service) MarkAsRead(ctx context.Context, id, actorID uuid.UUID) error {
	return s.notifRepo.MarkAsRead(ctx, id, actorID)
}

func (s *service) MarkAllAsRead(ctx context.Context, actorID uuid.UUID) error {
	return s.notifRepo.MarkAllAsRead(ctx, actorID)
}

func (s *service) GetUnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, actorID)
}

func (s *service) PublishAlert(ctx context.Context, req *domain.BloodRequest, alert domain.Alert) error {
	data := map[string]any{
		"request_id":     req.ID.String(),
		"cycle":          alert.Cycle,
		"blood_group":    string(req.BloodGroup),
		"units_needed":   req.UnitsNeeded,
		"distance":       alert.DistanceMeters,
		"latitude":       req.Latitude,
		"longitude":      req.Longitude,
		"recipient_role": string(alert.RecipientRole),
	}

	return s.create(ctx, alert.RecipientID, domain.NotifBloodAlert,
		i18n.Translatef(s.locale, "BLOOD_ALERT_TITLE", req.BloodGroup),
		i18n.Translatef(s.locale, "BLOOD_ALERT_MESSAGE", req.UnitsNeeded, req.BloodGroup, alert.DistanceMeters/1000, req.Address),
		data,
	)
}

func (s *service) NotifyAccepted(ctx context.Context, req *domain.BloodRequest) error {
	if req.AccepterID == nil {
		return nil
	}
	accepterName := "A responder"
	if accepter, err := s.actorRepo.GetByID(ctx, *req.AccepterID); err == nil {
		accepterName = accepter.Name
	}

	return s.create(ctx, req.RequesterID, domain.NotifRequestAccepted,
		i18n.Translate(s.locale, "REQUEST_ACCEPTED_TITLE"),
		i18n.Translatef(s.locale, "REQUEST_ACCEPTED_MESSAGE", accepterName, req.BloodGroup),
		map[string]any{"request_id": req.ID.String(), "accepter_id": req.AccepterID.String()},
	)
}

func (s *service) NotifyFulfilled(ctx context.Context, req *domain.BloodRequest) error {
	if req.FulfilledBy == nil {
		return nil
	}
	return s.create(ctx, *req.FulfilledBy, domain.NotifRequestFulfilled,
		i18n.Translate(s.locale, "REQUEST_FULFILLED_TITLE"),
		i18n.Translatef(s.locale, "REQUEST_FULFILLED_MESSAGE", req.BloodGroup),
		map[string]any{"request_id": req.ID.String()},
	)
}

func (s *service) NotifyReleased(ctx context.Context, req *domain.BloodRequest) error {
	if req.ReleasedAccepterID == nil {
		return nil
	}
	return s.create(ctx, *req.ReleasedAccepterID, domain.NotifAccepterReleased,
		i18n.Translate(s.locale, "ACCEPTER_RELEASED_TITLE"),
		i18n.Translatef(s.locale, "ACCEPTER_RELEASED_MESSAGE", req.BloodGroup),
		map[string]any{"request_id": req.ID.String(), "cycle": req.ReassignmentCount},
	)
}

func (s *service) NotifyCancelled(ctx context.Context, req *domain.BloodRequest, formerAccepter uuid.UUID) error {
	reason := ""
	if req.CancelReason != nil {
		reason = *req.CancelReason
	}

	if err := s.create(ctx, formerAccepter, domain.NotifRequestCancelled,
		i18n.Translate(s.locale, "REQUEST_CANCELLED_TITLE"),
		i18n.Translatef(s.locale, "REQUEST_CANCELLED_MESSAGE", req.BloodGroup, reason),
		map[string]any{"request_id": req.ID.String(), "reason": reason},
	); err != nil {
		return err
	}

	if s.emailSvc != nil {
		if accepter, err := s.actorRepo.GetByID(ctx, formerAccepter); err == nil && accepter.Email != nil {
			go func(toEmail, name, bloodGroup, reason string) {
				ctx := context.Background()
				if err := s.emailSvc.SendRequestCancelledEmail(ctx, toEmail, name, bloodGroup, reason); err != nil {
					s.logger.Warn("cancel email failed", zap.String("request_id", req.ID.String()), zap.Error(err))
				}
			}(*accepter.Email, accepter.Name, string(req.BloodGroup), reason)
		}
	}

	return nil
}

func (s *service) NotifyCampaignExpired(ctx context.Context, c *domain.Campaign) error {
	endDate := c.EndDate.Format("2006-01-02")
	if err := s.create(ctx, c.OwnerID, domain.NotifCampaignExpired,
		i18n.Translate(s.locale, "CAMPAIGN_EXPIRED_TITLE"),
		i18n.Translatef(s.locale, "CAMPAIGN_EXPIRED_MESSAGE", c.Title, endDate),
		map[string]any{"campaign_id": c.ID.String(), "end_date": endDate},
	); err != nil {
		return err
	}

	if s.emailSvc == nil {
		return nil
	}
	owner, err := s.actorRepo.GetByID(ctx, c.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to get campaign owner: %w", err)
	}
	if owner.Email == nil {
		return nil
	}
	return s.emailSvc.SendCampaignExpiredEmail(ctx, *owner.Email, owner.Name, c.Title, c.EndDate)
}

func (s *service) create(ctx context.Context, actorID uuid.UUID, typ domain.NotificationType, title, message string, dataMap map[string]any) error {
	data, _ := json.Marshal(dataMap)

	notif := &domain.Notification{
		ID:      uuid.New(),
		ActorID: actorID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    json.RawMessage(data),
	}

	if err := s.notifRepo.Create(ctx, notif); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
