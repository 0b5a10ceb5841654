package actor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/geo"
	"bloodlink/internal/repository/memory"
)

func TestLocationUpdatesFeedTheGeoIndex(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	index := geo.NewMemoryIndex()
	svc := NewService(repos.Actor, index, zap.NewNop())

	donor := &domain.Actor{ID: uuid.New(), Name: "Asha", Role: domain.RoleDonor}
	require.NoError(t, repos.Actor.Upsert(ctx, donor))

	group := domain.BloodONeg
	_, err := svc.UpdateProfile(ctx, donor.ID, domain.UpdateProfileInput{BloodGroup: &group})
	require.NoError(t, err)

	lat, lng := 12.97, 77.59
	got, err := svc.UpdateLocation(ctx, donor.ID, domain.UpdateLocationInput{Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	require.NotNil(t, got.Location())

	loc, err := index.Locate(ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BloodONeg, *loc.BloodGroup)
	assert.Equal(t, lat, loc.Location.Latitude)

	got, err = svc.UpdateLocation(ctx, donor.ID, domain.UpdateLocationInput{})
	require.NoError(t, err)
	assert.Nil(t, got.Location())
	_, err = index.Locate(ctx, donor.ID)
	assert.ErrorIs(t, err, geo.ErrNotIndexed, "a cleared location leaves the index")
}

func TestUpdateLocationValidation(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	svc := NewService(repos.Actor, geo.NewMemoryIndex(), zap.NewNop())

	a := &domain.Actor{ID: uuid.New(), Name: "NGO", Role: domain.RoleNGO}
	require.NoError(t, repos.Actor.Upsert(ctx, a))

	lat := 12.0
	_, err := svc.UpdateLocation(ctx, a.ID, domain.UpdateLocationInput{Latitude: &lat})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad, lng := 95.0, 10.0
	_, err = svc.UpdateLocation(ctx, a.ID, domain.UpdateLocationInput{Latitude: &bad, Longitude: &lng})
	assert.ErrorIs(t, err, domain.ErrValidation)

	polar := 86.0
	_, err = svc.UpdateLocation(ctx, a.ID, domain.UpdateLocationInput{Latitude: &polar, Longitude: &lng})
	assert.ErrorIs(t, err, domain.ErrValidation)
	stored, err := repos.Actor.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Location(), "a rejected push is not stored")

	_, err = svc.UpdateLocation(ctx, uuid.New(), domain.UpdateLocationInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOnlyDonorsCarryBloodGroup(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	svc := NewService(repos.Actor, geo.NewMemoryIndex(), zap.NewNop())

	bank := &domain.Actor{ID: uuid.New(), Name: "Bank", Role: domain.RoleBloodBank}
	require.NoError(t, repos.Actor.Upsert(ctx, bank))

	group := domain.BloodAPos
	_, err := svc.UpdateProfile(ctx, bank.ID, domain.UpdateProfileInput{BloodGroup: &group})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
