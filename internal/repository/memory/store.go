// Package memory is an in-process implementation of the repository interfaces.
// Every call takes one store-wide lock, so conditional updates have the same
// compare-and-set behaviour as the single-statement SQL versions.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
)

type alertKey struct {
	requestID   uuid.UUID
	cycle       int
	recipientID uuid.UUID
}

type Store struct {
	mu sync.Mutex

	actors        map[uuid.UUID]domain.Actor
	requests      map[uuid.UUID]domain.BloodRequest
	requestOrder  []uuid.UUID
	alerts        []domain.Alert
	alertKeys     map[alertKey]struct{}
	events        []domain.RequestEvent
	notifications []domain.Notification
	campaigns     map[uuid.UUID]domain.Campaign
	campaignOrder []uuid.UUID

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		actors:    make(map[uuid.UUID]domain.Actor),
		requests:  make(map[uuid.UUID]domain.BloodRequest),
		alertKeys: make(map[alertKey]struct{}),
		campaigns: make(map[uuid.UUID]domain.Campaign),
		now:       time.Now,
	}
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Actor:        &actorRepository{s},
		BloodRequest: &bloodRequestRepository{s},
		Alert:        &alertRepository{s},
		RequestEvent: &requestEventRepository{s},
		Notification: &notificationRepository{s},
		Campaign:     &campaignRepository{s},
	}
}

func paginate[T any](items []T, params domain.PaginationParams) ([]T, int64) {
	params.Validate()
	total := int64(len(items))
	start := params.Offset()
	if start >= len(items) {
		return []T{}, total
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}
