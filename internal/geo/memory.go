package geo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type MemoryIndex struct {
	mu     sync.RWMutex
	actors map[uuid.UUID]ActorLocation
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{actors: make(map[uuid.UUID]ActorLocation)}
}

func (m *MemoryIndex) Upsert(_ context.Context, loc ActorLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[loc.ActorID] = loc
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, actorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.actors, actorID)
	return nil
}

func (m *MemoryIndex) Locate(_ context.Context, actorID uuid.UUID) (*ActorLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.actors[actorID]
	if !ok {
		return nil, ErrNotIndexed
	}
	return &loc, nil
}

func (m *MemoryIndex) Query(ctx context.Context, center domain.Point, radiusMeters float64, filter Filter) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for _, loc := range m.actors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !filter.Matches(loc) {
			continue
		}
		d := domain.DistanceMeters(center, loc.Location)
		if !domain.InRadius(d, radiusMeters) {
			continue
		}
		hits = append(hits, Hit{ActorID: loc.ActorID, Role: loc.Role, BloodGroup: loc.BloodGroup, DistanceMeters: d})
	}

	sortHits(hits)
	return hits, nil
}
