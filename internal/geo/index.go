package geo

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
)

var ErrNotIndexed = errors.New("actor is not in the geo index")

// ActorLocation is what the index knows about a responder.
type ActorLocation struct {
	ActorID    uuid.UUID
	Role       domain.Role
	BloodGroup *domain.BloodGroup
	Location   domain.Point
}

type Hit struct {
	ActorID        uuid.UUID
	Role           domain.Role
	BloodGroup     *domain.BloodGroup
	DistanceMeters float64
}

// Filter narrows a query. BloodGroup only constrains donors; banks and NGOs match any group.
type Filter struct {
	Roles      []domain.Role
	BloodGroup *domain.BloodGroup
	Exclude    []uuid.UUID
}

func (f Filter) Matches(loc ActorLocation) bool {
	if len(f.Roles) > 0 {
		found := false
		for _, r := range f.Roles {
			if r == loc.Role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.BloodGroup != nil && loc.Role == domain.RoleDonor {
		if loc.BloodGroup == nil || !loc.BloodGroup.Compatible(*f.BloodGroup) {
			return false
		}
	}
	for _, id := range f.Exclude {
		if id == loc.ActorID {
			return false
		}
	}
	return true
}

// Index answers "who is within radius of this point".
type Index interface {
	Upsert(ctx context.Context, loc ActorLocation) error
	Remove(ctx context.Context, actorID uuid.UUID) error
	// Locate returns ErrNotIndexed for actors without a known position.
	Locate(ctx context.Context, actorID uuid.UUID) (*ActorLocation, error)
	// Query returns matching actors strictly within radiusMeters, nearest first.
	Query(ctx context.Context, center domain.Point, radiusMeters float64, filter Filter) ([]Hit, error)
}

// FromActor converts a stored actor. ok is false when the actor has no location.
func FromActor(a domain.Actor) (ActorLocation, bool) {
	p := a.Location()
	if p == nil {
		return ActorLocation{}, false
	}
	return ActorLocation{ActorID: a.ID, Role: a.Role, BloodGroup: a.BloodGroup, Location: *p}, true
}

func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceMeters != hits[j].DistanceMeters {
			return hits[i].DistanceMeters < hits[j].DistanceMeters
		}
		return hits[i].ActorID.String() < hits[j].ActorID.String()
	})
}

type ActorLister interface {
	ListLocated(ctx context.Context) ([]domain.Actor, error)
}

// Warm loads every located actor into idx and returns how many were indexed.
// An actor the index rejects is logged and skipped; only a failed listing or a
// cancelled ctx aborts the warm-up.
func Warm(ctx context.Context, idx Index, src ActorLister, logger *zap.Logger) (int, error) {
	actors, err := src.ListLocated(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, a := range actors {
		loc, ok := FromActor(a)
		if !ok || !a.Role.CanRespond() {
			continue
		}
		if err := idx.Upsert(ctx, loc); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return n, ctxErr
			}
			logger.Warn("actor skipped by geo index", zap.String("actor_id", a.ID.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}
