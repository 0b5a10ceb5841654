package acceptance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/mocks"
	"bloodlink/internal/repository"
	"bloodlink/internal/repository/memory"
	"bloodlink/internal/service/acceptance"
)

type eligibilityFunc func(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID) (bool, error)

func (f eligibilityFunc) IsEligible(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID) (bool, error) {
	return f(ctx, req, actorID)
}

var everyone = eligibilityFunc(func(context.Context, *domain.BloodRequest, uuid.UUID) (bool, error) { return true, nil })

func seedRequest(t *testing.T, repos *repository.Repositories, status domain.RequestStatus) *domain.BloodRequest {
	t.Helper()
	req := &domain.BloodRequest{
		ID:          uuid.New(),
		BloodGroup:  domain.BloodONeg,
		UnitsNeeded: 2,
		Latitude:    12.97,
		Longitude:   77.59,
		Address:     "Victoria Hospital",
		RequesterID: uuid.New(),
		Status:      status,
	}
	require.NoError(t, repos.BloodRequest.Create(context.Background(), req))
	return req
}

func newService(repos *repository.Repositories, elig acceptance.Eligibility, timeout time.Duration) (acceptance.Service, *mocks.NotificationService) {
	notifier := new(mocks.NotificationService)
	notifier.On("NotifyAccepted", mock.Anything, mock.Anything).Return(nil).Maybe()
	return acceptance.NewService(repos.BloodRequest, repos.RequestEvent, elig, notifier, timeout, zap.NewNop()), notifier
}

func TestAcceptExclusivity(t *testing.T) {
	repos := memory.NewStore().Repositories()
	req := seedRequest(t, repos, domain.RequestActive)
	svc, _ := newService(repos, everyone, time.Second)

	const n = 50
	outcomes := make([]acceptance.Outcome, n)
	errs := make([]error, n)
	actors := make([]uuid.UUID, n)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		actors[i] = uuid.New()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, outcomes[i], errs[i] = svc.Accept(context.Background(), req.ID, actors[i])
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	var winner uuid.UUID
	for i := range outcomes {
		switch outcomes[i] {
		case acceptance.OutcomeSuccess:
			winners++
			winner = actors[i]
			assert.NoError(t, errs[i])
		case acceptance.OutcomeAlreadyTaken:
			assert.ErrorIs(t, errs[i], domain.ErrConflict)
		default:
			t.Fatalf("unexpected outcome %q (%v)", outcomes[i], errs[i])
		}
	}
	require.Equal(t, 1, winners)

	stored, err := repos.BloodRequest.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestAccepted, stored.Status)
	assert.Equal(t, winner, *stored.AccepterID)

	events, err := repos.RequestEvent.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventAccept, events[0].Event)
	assert.Equal(t, winner, events[0].ActorID)
}

func TestAcceptScenario(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	req := seedRequest(t, repos, domain.RequestActive)
	svc, notifier := newService(repos, everyone, time.Second)
	donorA, donorB := uuid.New(), uuid.New()

	got, outcome, err := svc.Accept(ctx, req.ID, donorA)
	require.NoError(t, err)
	assert.Equal(t, acceptance.OutcomeSuccess, outcome)
	assert.Equal(t, domain.RequestAccepted, got.Status)
	assert.Equal(t, donorA, *got.AccepterID)
	notifier.AssertCalled(t, "NotifyAccepted", mock.Anything, mock.MatchedBy(func(r *domain.BloodRequest) bool {
		return r.ID == req.ID
	}))

	t.Run("second donor conflicts", func(t *testing.T) {
		got, outcome, err := svc.Accept(ctx, req.ID, donorB)
		assert.Nil(t, got)
		assert.Equal(t, acceptance.OutcomeAlreadyTaken, outcome)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("retry by winner is safe", func(t *testing.T) {
		got, outcome, err := svc.Accept(ctx, req.ID, donorA)
		require.NoError(t, err)
		assert.Equal(t, acceptance.OutcomeSuccess, outcome)
		assert.Equal(t, donorA, *got.AccepterID)

		events, _ := repos.RequestEvent.ListByRequest(ctx, req.ID)
		assert.Len(t, events, 1, "retry must not record a second accept")
	})
}

func TestAcceptGuards(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	t.Run("unknown request", func(t *testing.T) {
		svc, _ := newService(repos, everyone, time.Second)
		_, outcome, err := svc.Accept(ctx, uuid.New(), uuid.New())
		assert.Equal(t, acceptance.OutcomeNotFound, outcome)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("terminal request", func(t *testing.T) {
		svc, _ := newService(repos, everyone, time.Second)
		for _, status := range []domain.RequestStatus{domain.RequestFulfilled, domain.RequestCancelled} {
			req := seedRequest(t, repos, status)
			_, outcome, err := svc.Accept(ctx, req.ID, uuid.New())
			assert.Equal(t, acceptance.OutcomeTerminal, outcome)
			assert.ErrorIs(t, err, domain.ErrTerminalState)
		}
	})

	t.Run("requester cannot accept", func(t *testing.T) {
		svc, _ := newService(repos, everyone, time.Second)
		req := seedRequest(t, repos, domain.RequestActive)
		_, _, err := svc.Accept(ctx, req.ID, req.RequesterID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("ineligible caller", func(t *testing.T) {
		nobody := eligibilityFunc(func(context.Context, *domain.BloodRequest, uuid.UUID) (bool, error) { return false, nil })
		svc, _ := newService(repos, nobody, time.Second)
		req := seedRequest(t, repos, domain.RequestActive)
		_, _, err := svc.Accept(ctx, req.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrForbidden)

		stored, _ := repos.BloodRequest.GetByID(ctx, req.ID)
		assert.Equal(t, domain.RequestActive, stored.Status)
	})

	t.Run("eligibility failure is not an outcome", func(t *testing.T) {
		boom := errors.New("geo index unavailable")
		broken := eligibilityFunc(func(context.Context, *domain.BloodRequest, uuid.UUID) (bool, error) { return false, boom })
		svc, _ := newService(repos, broken, time.Second)
		req := seedRequest(t, repos, domain.RequestActive)
		_, outcome, err := svc.Accept(ctx, req.ID, uuid.New())
		assert.Empty(t, outcome)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAcceptTimeoutIsAFailure(t *testing.T) {
	repos := memory.NewStore().Repositories()
	req := seedRequest(t, repos, domain.RequestActive)
	slow := eligibilityFunc(func(ctx context.Context, _ *domain.BloodRequest, _ uuid.UUID) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	})
	svc, _ := newService(repos, slow, 20*time.Millisecond)

	_, outcome, err := svc.Accept(context.Background(), req.ID, uuid.New())
	assert.Empty(t, outcome)
	assert.ErrorIs(t, err, domain.ErrTimeout)

	stored, _ := repos.BloodRequest.GetByID(context.Background(), req.ID)
	assert.Equal(t, domain.RequestActive, stored.Status, "a timed out attempt leaves the request open")
}
