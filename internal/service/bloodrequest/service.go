package bloodrequest

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
)

// Service serves the read side of blood requests: the nearby alert list and the
// history views. All transitions go through lifecycle and acceptance.
type Service interface {
	NearbyAlerts(ctx context.Context, actorID uuid.UUID) ([]domain.NearbyRequest, error)
	MyRequests(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodRequestView], error)
	MyAccepted(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodRequestView], error)
	Get(ctx context.Context, id, actorID uuid.UUID) (*domain.BloodRequestView, error)
	History(ctx context.Context, id, actorID uuid.UUID) ([]domain.RequestEvent, error)
}

type service struct {
	requestRepo repository.BloodRequestRepository
	alertRepo   repository.AlertRepository
	eventRepo   repository.RequestEventRepository
	actorRepo   repository.ActorRepository
}

func NewService(
	requestRepo repository.BloodRequestRepository,
	alertRepo repository.AlertRepository,
	eventRepo repository.RequestEventRepository,
	actorRepo repository.ActorRepository,
) Service {
	return &service{
		requestRepo: requestRepo,
		alertRepo:   alertRepo,
		eventRepo:   eventRepo,
		actorRepo:   actorRepo,
	}
}

func (s *service) NearbyAlerts(ctx context.Context, actorID uuid.UUID) ([]domain.NearbyRequest, error) {
	actor, err := s.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanRespond() {
		return nil, fmt.Errorf("%w: role %s does not receive alerts", domain.ErrForbidden, actor.Role)
	}
	here := actor.Location()
	if here == nil {
		return nil, domain.Validationf("location is not set; update it before listing alerts")
	}

	candidates, err := s.requestRepo.ListOpenInBox(ctx, domain.BoxAround(*here, domain.AlertRadiusMeters))
	if err != nil {
		return nil, err
	}

	out := make([]domain.NearbyRequest, 0, len(candidates))
	for _, c := range candidates {
		if !visibleAsAlert(actor, &c.BloodRequest) {
			continue
		}
		d := domain.DistanceMeters(*here, c.Location())
		if !domain.InRadius(d, domain.AlertRadiusMeters) {
			continue
		}
		out = append(out, domain.NearbyRequest{
			BloodRequestView: c,
			Distance:         d,
			IsAccepted:       c.Status == domain.RequestAccepted,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// visibleAsAlert applies the dispatch eligibility rules to a listed request.
func visibleAsAlert(actor *domain.Actor, req *domain.BloodRequest) bool {
	if req.RequesterID == actor.ID {
		return false
	}
	if req.Status == domain.RequestActive && req.ReleasedAccepterID != nil && *req.ReleasedAccepterID == actor.ID {
		return false
	}
	if actor.Role == domain.RoleDonor {
		return actor.BloodGroup != nil && actor.BloodGroup.Compatible(req.BloodGroup)
	}
	return true
}

func (s *service) MyRequests(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodRequestView], error) {
	views, total, err := s.requestRepo.ListByRequester(ctx, actorID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.BloodRequestView]{}, err
	}
	return domain.NewPaginatedResponse(views, params, total), nil
}

func (s *service) MyAccepted(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.BloodRequestView], error) {
	views, total, err := s.requestRepo.ListAcceptedBy(ctx, actorID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.BloodRequestView]{}, err
	}
	return domain.NewPaginatedResponse(views, params, total), nil
}

func (s *service) Get(ctx context.Context, id, actorID uuid.UUID) (*domain.BloodRequestView, error) {
	view, err := s.requestRepo.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, &view.BloodRequest, actorID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) History(ctx context.Context, id, actorID uuid.UUID) ([]domain.RequestEvent, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, req, actorID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.RequestEvent{}
	}
	return events, nil
}

// authorizeView lets the requester, anyone who ever held the request, anyone
// alerted for it and admins read a request.
func (s *service) authorizeView(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID) error {
	if req.RequesterID == actorID || sameActor(req.AccepterID, actorID) ||
		sameActor(req.FulfilledBy, actorID) || sameActor(req.ReleasedAccepterID, actorID) {
		return nil
	}

	alerted, err := s.alertRepo.HasAlert(ctx, req.ID, actorID)
	if err != nil {
		return err
	}
	if alerted {
		return nil
	}

	actor, err := s.actorRepo.GetByID(ctx, actorID)
	if err == nil && actor.Role == domain.RoleAdmin {
		return nil
	}
	return fmt.Errorf("%w: request %s is not visible to this actor", domain.ErrForbidden, req.ID)
}

func sameActor(id *uuid.UUID, actorID uuid.UUID) bool {
	return id != nil && *id == actorID
}
