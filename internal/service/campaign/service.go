package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/pkg/validation"
	"bloodlink/internal/repository"
)

type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input domain.CreateCampaignInput) (*domain.CampaignView, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.CampaignView, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, input domain.UpdateCampaignInput) (*domain.CampaignView, error)
	// End records the units collected and closes the campaign for good.
	End(ctx context.Context, id, ownerID uuid.UUID, input domain.EndCampaignInput) (*domain.CampaignView, error)
	// Extend pushes the end date to a future date; the campaign keeps its derived status.
	Extend(ctx context.Context, id, ownerID uuid.UUID, input domain.ExtendCampaignInput) (*domain.CampaignView, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.CampaignView], error)
	ListExpired(ctx context.Context, ownerID *uuid.UUID) ([]domain.CampaignView, error)
}

type service struct {
	campaignRepo repository.CampaignRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(campaignRepo repository.CampaignRepository, logger *zap.Logger) Service {
	return &service{
		campaignRepo: campaignRepo,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input domain.CreateCampaignInput) (*domain.CampaignView, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	c := &domain.Campaign{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          strings.TrimSpace(input.Title),
		StartDate:      input.StartDate.UTC(),
		EndDate:        input.EndDate.UTC(),
		PartnerBankIDs: partnerIDs(input.PartnerBankIDs),
	}

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	s.logger.Info("campaign created", zap.String("campaign_id", c.ID.String()), zap.String("owner_id", ownerID.String()))
	return s.view(c), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.CampaignView, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *service) Update(ctx context.Context, id, ownerID uuid.UUID, input domain.UpdateCampaignInput) (*domain.CampaignView, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	c, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		c.Title = strings.TrimSpace(*input.Title)
	}
	if input.StartDate != nil {
		c.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil && !input.EndDate.Equal(c.EndDate) {
		if input.EndDate.After(c.EndDate) && !input.EndDate.After(s.now()) {
			return nil, domain.Validationf("end_date must be in the future to extend a campaign")
		}
		c.EndDate = input.EndDate.UTC()
	}
	if input.PartnerBankIDs != nil {
		c.PartnerBankIDs = partnerIDs(input.PartnerBankIDs)
	}
	if !c.EndDate.After(c.StartDate) {
		return nil, domain.Validationf("end_date must be after start_date")
	}

	return s.save(ctx, c)
}

func (s *service) End(ctx context.Context, id, ownerID uuid.UUID, input domain.EndCampaignInput) (*domain.CampaignView, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, id, ownerID); err != nil {
		return nil, err
	}

	ok, err := s.campaignRepo.End(ctx, id, *input.BloodUnitsCollected, s.now())
	if err != nil {
		return nil, fmt.Errorf("end campaign: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: campaign already ended", domain.ErrTerminalState)
	}

	s.logger.Info("campaign ended",
		zap.String("campaign_id", id.String()), zap.Int("blood_units_collected", *input.BloodUnitsCollected))
	return s.Get(ctx, id)
}

func (s *service) Extend(ctx context.Context, id, ownerID uuid.UUID, input domain.ExtendCampaignInput) (*domain.CampaignView, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !input.EndDate.After(s.now()) {
		return nil, domain.Validationf("end_date must be in the future")
	}

	c, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !input.EndDate.After(c.StartDate) {
		return nil, domain.Validationf("end_date must be after start_date")
	}

	c.EndDate = input.EndDate.UTC()
	return s.save(ctx, c)
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.CampaignView], error) {
	campaigns, total, err := s.campaignRepo.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.CampaignView]{}, err
	}

	now := s.now()
	views := make([]domain.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, domain.NewCampaignView(c, now))
	}
	return domain.NewPaginatedResponse(views, params, total), nil
}

func (s *service) ListExpired(ctx context.Context, ownerID *uuid.UUID) ([]domain.CampaignView, error) {
	now := s.now()
	campaigns, err := s.campaignRepo.ListExpired(ctx, now, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, domain.NewCampaignView(c, now))
	}
	return views, nil
}

func (s *service) owned(ctx context.Context, id, ownerID uuid.UUID) (*domain.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owning NGO can change this campaign", domain.ErrForbidden)
	}
	if c.Ended {
		return nil, fmt.Errorf("%w: campaign already ended", domain.ErrTerminalState)
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c *domain.Campaign) (*domain.CampaignView, error) {
	ok, err := s.campaignRepo.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: campaign already ended", domain.ErrTerminalState)
	}
	return s.view(c), nil
}

func (s *service) view(c *domain.Campaign) *domain.CampaignView {
	v := domain.NewCampaignView(*c, s.now())
	return &v
}

func partnerIDs(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
