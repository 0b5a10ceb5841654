package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
)

var bangalore = domain.Point{Latitude: 12.97, Longitude: 77.59}

func bloodGroup(g domain.BloodGroup) *domain.BloodGroup { return &g }

func at(meters, bearing float64) domain.Point {
	return domain.Destination(bangalore, bearing, meters)
}

func TestMemoryIndexQueryRadiusAndOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	near := uuid.New()
	mid := uuid.New()
	far := uuid.New()
	require.NoError(t, idx.Upsert(ctx, ActorLocation{ActorID: far, Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodONeg), Location: at(40000, 0)}))
	require.NoError(t, idx.Upsert(ctx, ActorLocation{ActorID: mid, Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodONeg), Location: at(30000, 90)}))
	require.NoError(t, idx.Upsert(ctx, ActorLocation{ActorID: near, Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodONeg), Location: at(2000, 180)}))

	hits, err := idx.Query(ctx, bangalore, domain.AlertRadiusMeters, Filter{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, near, hits[0].ActorID)
	assert.Equal(t, mid, hits[1].ActorID)
	assert.InDelta(t, 2000, hits[0].DistanceMeters, 1)
}

func TestMemoryIndexBoundaryIsExclusive(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	inside := uuid.New()
	outside := uuid.New()
	require.NoError(t, idx.Upsert(ctx, ActorLocation{ActorID: inside, Role: domain.RoleBloodBank, Location: at(34999.9, 45)}))
	require.NoError(t, idx.Upsert(ctx, ActorLocation{ActorID: outside, Role: domain.RoleBloodBank, Location: at(35000.1, 45)}))

	hits, err := idx.Query(ctx, bangalore, domain.AlertRadiusMeters, Filter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, inside, hits[0].ActorID)
}

func TestFilterMatches(t *testing.T) {
	requester := uuid.New()
	want := bloodGroup(domain.BloodONeg)
	f := Filter{
		Roles:      []domain.Role{domain.RoleDonor, domain.RoleBloodBank, domain.RoleNGO},
		BloodGroup: want,
		Exclude:    []uuid.UUID{requester},
	}

	tests := []struct {
		name string
		loc  ActorLocation
		want bool
	}{
		{"matching donor", ActorLocation{ActorID: uuid.New(), Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodONeg)}, true},
		{"other group donor", ActorLocation{ActorID: uuid.New(), Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodOPos)}, false},
		{"donor without group", ActorLocation{ActorID: uuid.New(), Role: domain.RoleDonor}, false},
		{"blood bank any group", ActorLocation{ActorID: uuid.New(), Role: domain.RoleBloodBank}, true},
		{"ngo any group", ActorLocation{ActorID: uuid.New(), Role: domain.RoleNGO, BloodGroup: bloodGroup(domain.BloodAPos)}, true},
		{"admin", ActorLocation{ActorID: uuid.New(), Role: domain.RoleAdmin}, false},
		{"excluded", ActorLocation{ActorID: requester, Role: domain.RoleBloodBank}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Matches(tt.loc))
		})
	}
}

func TestMemoryIndexLocateAndRemove(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	id := uuid.New()

	_, err := idx.Locate(ctx, id)
	assert.True(t, errors.Is(err, ErrNotIndexed))

	require.NoError(t, idx.Upsert(ctx, ActorLocation{ActorID: id, Role: domain.RoleNGO, Location: bangalore}))
	loc, err := idx.Locate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNGO, loc.Role)

	require.NoError(t, idx.Remove(ctx, id))
	_, err = idx.Locate(ctx, id)
	assert.ErrorIs(t, err, ErrNotIndexed)
}

type stubLister []domain.Actor

func (s stubLister) ListLocated(context.Context) ([]domain.Actor, error) { return s, nil }

func TestWarmSkipsUnlocatedAndAdmins(t *testing.T) {
	lat, lng := 12.97, 77.59
	actors := stubLister{
		{ID: uuid.New(), Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodBPos), Latitude: &lat, Longitude: &lng},
		{ID: uuid.New(), Role: domain.RoleAdmin, Latitude: &lat, Longitude: &lng},
		{ID: uuid.New(), Role: domain.RoleNGO},
	}

	idx := NewMemoryIndex()
	n, err := Warm(context.Background(), idx, actors, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = idx.Locate(context.Background(), actors[0].ID)
	assert.NoError(t, err)
}

// rejectingIndex fails upserts for one actor and delegates everything else.
type rejectingIndex struct {
	*MemoryIndex
	reject uuid.UUID
}

func (r rejectingIndex) Upsert(ctx context.Context, loc ActorLocation) error {
	if loc.ActorID == r.reject {
		return errors.New("invalid longitude,latitude pair")
	}
	return r.MemoryIndex.Upsert(ctx, loc)
}

func TestWarmSkipsActorsTheIndexRejects(t *testing.T) {
	lat, lng := 12.97, 77.59
	polar := 86.0
	actors := stubLister{
		{ID: uuid.New(), Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodBPos), Latitude: &polar, Longitude: &lng},
		{ID: uuid.New(), Role: domain.RoleBloodBank, Latitude: &lat, Longitude: &lng},
	}

	idx := rejectingIndex{MemoryIndex: NewMemoryIndex(), reject: actors[0].ID}
	n, err := Warm(context.Background(), idx, actors, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = idx.Locate(context.Background(), actors[0].ID)
	assert.ErrorIs(t, err, ErrNotIndexed)
	_, err = idx.Locate(context.Background(), actors[1].ID)
	assert.NoError(t, err)
}
