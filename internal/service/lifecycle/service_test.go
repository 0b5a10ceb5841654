package lifecycle_test

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
	"bloodlink/internal/geo"
	"bloodlink/internal/mocks"
	"bloodlink/internal/repository"
	"bloodlink/internal/repository/memory"
	"bloodlink/internal/service/acceptance"
	"bloodlink/internal/service/dispatch"
	"bloodlink/internal/service/lifecycle"
)

var hospital = domain.Point{Latitude: 12.97, Longitude: 77.59}

type engine struct {
	repos     *repository.Repositories
	index     *geo.MemoryIndex
	notifier  *mocks.NotificationService
	lifecycle lifecycle.Service
	accept    acceptance.Service
	requester uuid.UUID
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	e := &engine{
		repos:     memory.NewStore().Repositories(),
		index:     geo.NewMemoryIndex(),
		notifier:  new(mocks.NotificationService),
		requester: uuid.New(),
	}
	e.notifier.On("PublishAlert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	e.notifier.On("NotifyAccepted", mock.Anything, mock.Anything).Return(nil).Maybe()
	e.notifier.On("NotifyFulfilled", mock.Anything, mock.Anything).Return(nil).Maybe()
	e.notifier.On("NotifyReleased", mock.Anything, mock.Anything).Return(nil).Maybe()
	e.notifier.On("NotifyCancelled", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	d := dispatch.NewDispatcher(e.index, e.repos.Alert, dispatch.NewMemoryGuard(), e.notifier, dispatch.Options{BatchSize: 10}, zap.NewNop())
	e.lifecycle = lifecycle.NewService(e.repos.BloodRequest, e.repos.RequestEvent, d, e.notifier, time.Second, zap.NewNop())
	e.accept = acceptance.NewService(e.repos.BloodRequest, e.repos.RequestEvent, d, e.notifier, time.Second, zap.NewNop())
	return e
}

func (e *engine) donor(t *testing.T, meters, bearing float64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	g := domain.BloodONeg
	require.NoError(t, e.index.Upsert(context.Background(), geo.ActorLocation{
		ActorID: id, Role: domain.RoleDonor, BloodGroup: &g, Location: domain.Destination(hospital, bearing, meters),
	}))
	return id
}

func createInput() domain.CreateBloodRequestInput {
	lat, lng := hospital.Latitude, hospital.Longitude
	return domain.CreateBloodRequestInput{
		BloodGroup:  domain.BloodONeg,
		UnitsNeeded: 2,
		Latitude:    &lat,
		Longitude:   &lng,
		Address:     "Victoria Hospital, Bengaluru",
	}
}

func TestCreateValidation(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name   string
		mutate func(*domain.CreateBloodRequestInput)
	}{
		{"missing blood group", func(in *domain.CreateBloodRequestInput) { in.BloodGroup = "" }},
		{"unknown blood group", func(in *domain.CreateBloodRequestInput) { in.BloodGroup = "C+" }},
		{"zero units", func(in *domain.CreateBloodRequestInput) { in.UnitsNeeded = 0 }},
		{"blank address", func(in *domain.CreateBloodRequestInput) { in.Address = "   " }},
		{"no location", func(in *domain.CreateBloodRequestInput) { in.Latitude = nil }},
		{"polar location", func(in *domain.CreateBloodRequestInput) {
			lat := 86.0
			in.Latitude = &lat
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput()
			tt.mutate(&in)
			res, err := e.lifecycle.Create(context.Background(), e.requester, in)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	page, total, err := e.repos.BloodRequest.ListByRequester(context.Background(), e.requester, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestFulfilmentScenario(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	donorA := e.donor(t, 2000, 0)
	donorB := e.donor(t, 30000, 120)
	e.donor(t, 40000, 240)

	res, err := e.lifecycle.Create(ctx, e.requester, createInput())
	require.NoError(t, err)
	assert.Equal(t, 2, res.AlertsSent)
	assert.Equal(t, domain.RequestActive, res.Request.Status)
	id := res.Request.ID

	got, outcome, err := e.accept.Accept(ctx, id, donorA)
	require.NoError(t, err)
	assert.Equal(t, acceptance.OutcomeSuccess, outcome)
	assert.Equal(t, donorA, *got.AccepterID)

	_, outcome, err = e.accept.Accept(ctx, id, donorB)
	assert.Equal(t, acceptance.OutcomeAlreadyTaken, outcome)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = e.lifecycle.ConfirmFulfilled(ctx, id, donorA)
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the requester confirms")

	done, err := e.lifecycle.ConfirmFulfilled(ctx, id, e.requester)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestFulfilled, done.Status)
	assert.Equal(t, donorA, *done.FulfilledBy)
	e.notifier.AssertCalled(t, "NotifyFulfilled", mock.Anything, mock.Anything)

	// Terminal from here on.
	_, err = e.lifecycle.ConfirmFulfilled(ctx, id, e.requester)
	assert.ErrorIs(t, err, domain.ErrTerminalState)
	_, err = e.lifecycle.ReportUnresponsive(ctx, id, e.requester)
	assert.ErrorIs(t, err, domain.ErrTerminalState)
	_, err = e.lifecycle.Cancel(ctx, id, e.requester, domain.CancelBloodRequestInput{Reason: "late"})
	assert.ErrorIs(t, err, domain.ErrTerminalState)
	_, outcome, err = e.accept.Accept(ctx, id, donorB)
	assert.Equal(t, acceptance.OutcomeTerminal, outcome)
	assert.ErrorIs(t, err, domain.ErrTerminalState)

	stored, err := e.repos.BloodRequest.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestFulfilled, stored.Status)
	assert.Nil(t, stored.AccepterID)

	history, err := e.repos.RequestEvent.ListByRequest(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.EventConfirmFulfilled, history[0].Event)
	assert.Equal(t, domain.EventAccept, history[1].Event)
	assert.Equal(t, domain.EventCreate, history[2].Event)
}

func TestReassignmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	donorA := e.donor(t, 2000, 0)
	donorB := e.donor(t, 5000, 90)

	res, err := e.lifecycle.Create(ctx, e.requester, createInput())
	require.NoError(t, err)
	id := res.Request.ID

	_, _, err = e.accept.Accept(ctx, id, donorA)
	require.NoError(t, err)

	_, err = e.lifecycle.ReportUnresponsive(ctx, id, donorB)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	reopened, err := e.lifecycle.ReportUnresponsive(ctx, id, e.requester)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestActive, reopened.Request.Status)
	assert.Nil(t, reopened.Request.AccepterID)
	assert.Equal(t, 1, reopened.Request.ReassignmentCount)
	assert.Equal(t, 1, reopened.AlertsSent)
	e.notifier.AssertCalled(t, "NotifyReleased", mock.Anything, mock.Anything)

	cycle1, err := e.repos.Alert.ListForCycle(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, cycle1, 1)
	assert.Equal(t, donorB, cycle1[0].RecipientID)

	_, _, err = e.accept.Accept(ctx, id, donorA)
	assert.ErrorIs(t, err, domain.ErrForbidden, "released accepter sits out this cycle")

	got, outcome, err := e.accept.Accept(ctx, id, donorB)
	require.NoError(t, err)
	assert.Equal(t, acceptance.OutcomeSuccess, outcome)
	assert.Equal(t, donorB, *got.AccepterID)

	_, err = e.lifecycle.ReportUnresponsive(ctx, id, e.requester)
	require.NoError(t, err)
	_, _, err = e.accept.Accept(ctx, id, donorA)
	assert.NoError(t, err, "exclusion lasts a single cycle")
}

func TestReportUnresponsiveNeedsAccepter(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	res, err := e.lifecycle.Create(ctx, e.requester, createInput())
	require.NoError(t, err)

	_, err = e.lifecycle.ReportUnresponsive(ctx, res.Request.ID, e.requester)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NotErrorIs(t, err, domain.ErrConflict)

	_, err = e.lifecycle.ConfirmFulfilled(ctx, res.Request.ID, e.requester)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("active request", func(t *testing.T) {
		e := newEngine(t)
		res, err := e.lifecycle.Create(ctx, e.requester, createInput())
		require.NoError(t, err)

		_, err = e.lifecycle.Cancel(ctx, res.Request.ID, e.requester, domain.CancelBloodRequestInput{})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = e.lifecycle.Cancel(ctx, res.Request.ID, uuid.New(), domain.CancelBloodRequestInput{Reason: "x"})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		cancelled, err := e.lifecycle.Cancel(ctx, res.Request.ID, e.requester, domain.CancelBloodRequestInput{Reason: "Arranged through family"})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestCancelled, cancelled.Status)
		assert.Equal(t, "Arranged through family", *cancelled.CancelReason)
		assert.Equal(t, e.requester, *cancelled.CancelledBy)
		e.notifier.AssertNotCalled(t, "NotifyCancelled", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepted request notifies accepter", func(t *testing.T) {
		e := newEngine(t)
		donor := e.donor(t, 1000, 0)
		res, err := e.lifecycle.Create(ctx, e.requester, createInput())
		require.NoError(t, err)
		_, _, err = e.accept.Accept(ctx, res.Request.ID, donor)
		require.NoError(t, err)

		cancelled, err := e.lifecycle.Cancel(ctx, res.Request.ID, e.requester, domain.CancelBloodRequestInput{Reason: "Patient transferred"})
		require.NoError(t, err)
		assert.Nil(t, cancelled.AccepterID)
		e.notifier.AssertCalled(t, "NotifyCancelled", mock.Anything, mock.Anything, donor)

		_, outcome, err := e.accept.Accept(ctx, res.Request.ID, donor)
		assert.Equal(t, acceptance.OutcomeTerminal, outcome)
		assert.ErrorIs(t, err, domain.ErrTerminalState)
	})
}

func TestUnknownRequest(t *testing.T) {
	e := newEngine(t)
	_, err := e.lifecycle.ConfirmFulfilled(context.Background(), uuid.New(), e.requester)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
