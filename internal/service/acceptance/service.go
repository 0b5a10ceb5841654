package acceptance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
)

type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeAlreadyTaken Outcome = "already_taken"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeTerminal     Outcome = "terminal"
)

// Eligibility decides whether an actor may accept a request in its current cycle.
type Eligibility interface {
	IsEligible(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID) (bool, error)
}

type Notifier interface {
	NotifyAccepted(ctx context.Context, req *domain.BloodRequest) error
}

type Service interface {
	// Accept claims the request for actorID. Exactly one of any number of concurrent
	// callers gets OutcomeSuccess; the rest get OutcomeAlreadyTaken with domain.ErrConflict.
	// Repeating a successful call returns OutcomeSuccess again.
	Accept(ctx context.Context, requestID, actorID uuid.UUID) (*domain.BloodRequest, Outcome, error)
}

type service struct {
	requestRepo repository.BloodRequestRepository
	eventRepo   repository.RequestEventRepository
	eligibility Eligibility
	notifier    Notifier
	timeout     time.Duration
	logger      *zap.Logger
	now         func() time.Time

	attempts metric.Int64Counter
}

func NewService(
	requestRepo repository.BloodRequestRepository,
	eventRepo repository.RequestEventRepository,
	eligibility Eligibility,
	notifier Notifier,
	timeout time.Duration,
	logger *zap.Logger,
) Service {
	attempts, err := otel.Meter("bloodlink/acceptance").Int64Counter("bloodlink.accept.attempts",
		metric.WithDescription("Accept attempts by outcome"))
	if err != nil {
		logger.Warn("accept counter unavailable", zap.Error(err))
	}

	return &service{
		requestRepo: requestRepo,
		eventRepo:   eventRepo,
		eligibility: eligibility,
		notifier:    notifier,
		timeout:     timeout,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		attempts:    attempts,
	}
}

func (s *service) Accept(ctx context.Context, requestID, actorID uuid.UUID) (*domain.BloodRequest, Outcome, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, outcome, err := s.accept(ctx, requestID, actorID)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: accept %s", domain.ErrTimeout, requestID)
	}

	if s.attempts != nil {
		label := string(outcome)
		if outcome == "" {
			label = "error"
		}
		s.attempts.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", label)))
	}
	return req, outcome, err
}

func (s *service) accept(ctx context.Context, requestID, actorID uuid.UUID) (*domain.BloodRequest, Outcome, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, OutcomeNotFound, err
	}
	if err != nil {
		return nil, "", err
	}

	if req.RequesterID == actorID {
		return nil, "", fmt.Errorf("%w: requesters cannot accept their own request", domain.ErrForbidden)
	}
	if outcome, err := settledOutcome(req, actorID); outcome != "" {
		return resultFor(req, outcome), outcome, err
	}

	eligible, err := s.eligibility.IsEligible(ctx, req, actorID)
	if err != nil {
		return nil, "", err
	}
	if !eligible {
		return nil, "", fmt.Errorf("%w: not an eligible recipient of this request", domain.ErrForbidden)
	}

	accepted, ok, err := s.requestRepo.CompareAndAccept(ctx, requestID, actorID, s.now())
	if err != nil {
		return nil, "", err
	}
	if !ok {
		// Lost the compare-and-set; the current row says why.
		current, err := s.requestRepo.GetByID(ctx, requestID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, OutcomeNotFound, err
		}
		if err != nil {
			return nil, "", err
		}
		outcome, err := settledOutcome(current, actorID)
		if outcome == "" {
			// Taken and released again between our update and this read.
			outcome, err = OutcomeAlreadyTaken, domain.ErrConflict
		}
		return resultFor(current, outcome), outcome, err
	}

	s.afterAccept(ctx, accepted, actorID)
	return accepted, OutcomeSuccess, nil
}

// settledOutcome classifies a request this caller cannot win with a compare-and-set.
// It returns an empty outcome while the request is still open.
func settledOutcome(req *domain.BloodRequest, actorID uuid.UUID) (Outcome, error) {
	switch {
	case req.Status.IsTerminal():
		return OutcomeTerminal, domain.ErrTerminalState
	case req.IsAcceptedBy(actorID):
		return OutcomeSuccess, nil
	case req.Status == domain.RequestAccepted:
		return OutcomeAlreadyTaken, domain.ErrConflict
	default:
		return "", nil
	}
}

func resultFor(req *domain.BloodRequest, outcome Outcome) *domain.BloodRequest {
	if outcome == OutcomeSuccess {
		return req
	}
	return nil
}

func (s *service) afterAccept(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	from := domain.RequestActive

	event := &domain.RequestEvent{
		ID:         uuid.New(),
		RequestID:  req.ID,
		ActorID:    actorID,
		Event:      domain.EventAccept,
		FromStatus: &from,
		ToStatus:   req.Status,
		Cycle:      req.Cycle(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.logger.Error("failed to record accept event",
			zap.String("request_id", req.ID.String()), zap.String("actor_id", actorID.String()), zap.Error(err))
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyAccepted(ctx, req); err != nil {
			s.logger.Warn("failed to notify requester", zap.String("request_id", req.ID.String()), zap.Error(err))
		}
	}
}
