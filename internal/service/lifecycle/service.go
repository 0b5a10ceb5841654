package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/pkg/validation"
	"bloodlink/internal/repository"
	"bloodlink/internal/service/dispatch"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.BloodRequest) (int, error)
	Abort(requestID uuid.UUID)
}

type Notifier interface {
	NotifyFulfilled(ctx context.Context, req *domain.BloodRequest) error
	NotifyReleased(ctx context.Context, req *domain.BloodRequest) error
	NotifyCancelled(ctx context.Context, req *domain.BloodRequest, formerAccepter uuid.UUID) error
}

// Service drives a blood request through every transition except accept,
// which belongs to the acceptance coordinator.
type Service interface {
	Create(ctx context.Context, requesterID uuid.UUID, input domain.CreateBloodRequestInput) (*domain.CreateBloodRequestResult, error)
	ConfirmFulfilled(ctx context.Context, requestID, actorID uuid.UUID) (*domain.BloodRequest, error)
	// ReportUnresponsive releases the current accepter, reopens the request and
	// dispatches the new cycle. It returns the reopened request and the alerts sent.
	ReportUnresponsive(ctx context.Context, requestID, actorID uuid.UUID) (*domain.CreateBloodRequestResult, error)
	Cancel(ctx context.Context, requestID, actorID uuid.UUID, input domain.CancelBloodRequestInput) (*domain.BloodRequest, error)
}

type service struct {
	requestRepo  repository.BloodRequestRepository
	eventRepo    repository.RequestEventRepository
	dispatcher   Dispatcher
	notifier     Notifier
	storeTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	transitions metric.Int64Counter
}

func NewService(
	requestRepo repository.BloodRequestRepository,
	eventRepo repository.RequestEventRepository,
	dispatcher Dispatcher,
	notifier Notifier,
	storeTimeout time.Duration,
	logger *zap.Logger,
) Service {
	transitions, err := otel.Meter("bloodlink/lifecycle").Int64Counter("bloodlink.transitions",
		metric.WithDescription("Blood request transitions by event"))
	if err != nil {
		logger.Warn("transitions counter unavailable", zap.Error(err))
	}

	return &service{
		requestRepo:  requestRepo,
		eventRepo:    eventRepo,
		dispatcher:   dispatcher,
		notifier:     notifier,
		storeTimeout: storeTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		transitions:  transitions,
	}
}

func (s *service) Create(ctx context.Context, requesterID uuid.UUID, input domain.CreateBloodRequestInput) (*domain.CreateBloodRequestResult, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	req := &domain.BloodRequest{
		ID:           uuid.New(),
		BloodGroup:   input.BloodGroup,
		UnitsNeeded:  input.UnitsNeeded,
		Latitude:     *input.Latitude,
		Longitude:    *input.Longitude,
		Address:      strings.TrimSpace(input.Address),
		ContactPhone: input.ContactPhone,
		Note:         input.Note,
		RequesterID:  requesterID,
		Status:       domain.RequestActive,
	}

	storeCtx, cancel := s.storeContext(ctx)
	err := s.requestRepo.Create(storeCtx, req)
	cancel()
	if err != nil {
		return nil, s.storeError("create blood request", err)
	}

	s.record(ctx, req, requesterID, domain.EventCreate, nil, nil)

	sent, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		// The request is stored either way; a later retry of the cycle resumes the fan-out.
		s.logger.Error("initial dispatch failed",
			zap.String("request_id", req.ID.String()), zap.Int("alerts_sent", sent), zap.Error(err))
	}

	return &domain.CreateBloodRequestResult{Request: req, AlertsSent: sent}, nil
}

func validateCreate(input domain.CreateBloodRequestInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if !input.BloodGroup.IsValid() {
		return domain.Validationf("blood_group %q is not one of the 8 ABO/Rh groups", input.BloodGroup)
	}
	if strings.TrimSpace(input.Address) == "" {
		return domain.Validationf("address is required")
	}
	loc := domain.Point{Latitude: *input.Latitude, Longitude: *input.Longitude}
	if !loc.Valid() {
		return domain.Validationf("location is out of range")
	}
	if !loc.Indexable() {
		return domain.Validationf("latitude must be within ±%g", domain.MaxGeoLatitude)
	}
	return nil
}

func (s *service) ConfirmFulfilled(ctx context.Context, requestID, actorID uuid.UUID) (*domain.BloodRequest, error) {
	next, _, err := s.transition(ctx, requestID, actorID, domain.EventConfirmFulfilled, nil)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyFulfilled(context.WithoutCancel(ctx), next); err != nil {
			s.logger.Warn("failed to notify fulfiller", zap.String("request_id", next.ID.String()), zap.Error(err))
		}
	}
	return next, nil
}

func (s *service) ReportUnresponsive(ctx context.Context, requestID, actorID uuid.UUID) (*domain.CreateBloodRequestResult, error) {
	next, _, err := s.transition(ctx, requestID, actorID, domain.EventReportUnresponsive, nil)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyReleased(context.WithoutCancel(ctx), next); err != nil {
			s.logger.Warn("failed to notify released accepter", zap.String("request_id", next.ID.String()), zap.Error(err))
		}
	}

	sent, err := s.dispatcher.Dispatch(ctx, next)
	if err != nil {
		s.logger.Error("redispatch failed",
			zap.String("request_id", next.ID.String()), zap.Int("cycle", next.Cycle()), zap.Error(err))
	}

	return &domain.CreateBloodRequestResult{Request: next, AlertsSent: sent}, nil
}

func (s *service) Cancel(ctx context.Context, requestID, actorID uuid.UUID, input domain.CancelBloodRequestInput) (*domain.BloodRequest, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, domain.Validationf("reason is required")
	}

	next, prev, err := s.transition(ctx, requestID, actorID, domain.EventCancel, &reason)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Abort(requestID)

	if s.notifier != nil && prev.AccepterID != nil {
		if err := s.notifier.NotifyCancelled(context.WithoutCancel(ctx), next, *prev.AccepterID); err != nil {
			s.logger.Warn("failed to notify accepter of cancel", zap.String("request_id", next.ID.String()), zap.Error(err))
		}
	}
	return next, nil
}

// transition applies a requester-only event with a conditional write on the status
// (and accepter) that was read. A caller that lost a race gets the outcome the
// current row implies.
func (s *service) transition(ctx context.Context, requestID, actorID uuid.UUID, event domain.RequestEventType, reason *string) (*domain.BloodRequest, *domain.BloodRequest, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	cur, err := s.requestRepo.GetByID(storeCtx, requestID)
	if err != nil {
		return nil, nil, s.storeError("load blood request", err)
	}
	if cur.RequesterID != actorID {
		return nil, nil, fmt.Errorf("%w: only the requester can %s this request", domain.ErrForbidden, event)
	}

	next, err := cur.Apply(event, actorID, reason, s.now())
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.requestRepo.UpdateIfState(storeCtx, next, cur.Status, cur.AccepterID)
	if err != nil {
		return nil, nil, s.storeError("update blood request", err)
	}
	if !ok {
		latest, err := s.requestRepo.GetByID(storeCtx, requestID)
		if err != nil {
			return nil, nil, s.storeError("reload blood request", err)
		}
		if _, err := domain.Transition(latest.Status, event); err != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: request changed while it was being updated", domain.ErrConflict)
	}

	s.record(ctx, next, actorID, event, &cur.Status, reason)
	return next, cur, nil
}

func (s *service) record(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID, event domain.RequestEventType, from *domain.RequestStatus, reason *string) {
	entry := &domain.RequestEvent{
		ID:         uuid.New(),
		RequestID:  req.ID,
		ActorID:    actorID,
		Event:      event,
		FromStatus: from,
		ToStatus:   req.Status,
		Reason:     reason,
		Cycle:      req.Cycle(),
	}
	if err := s.eventRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to record request event",
			zap.String("request_id", req.ID.String()), zap.String("event", string(event)), zap.Error(err))
	}

	if s.transitions != nil {
		s.transitions.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("event", string(event))))
	}
}

func (s *service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *service) storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrTimeout, op)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)
