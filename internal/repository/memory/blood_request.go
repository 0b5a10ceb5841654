package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type bloodRequestRepository struct {
	s *Store
}

func (r *bloodRequestRepository) Create(ctx context.Context, req *domain.BloodRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.requests[req.ID]; ok {
		return fmt.Errorf("blood request %s already exists", req.ID)
	}
	now := r.s.now()
	req.CreatedAt = now
	req.UpdatedAt = now
	r.s.requests[req.ID] = *req
	r.s.requestOrder = append(r.s.requestOrder, req.ID)
	return nil
}

func (r *bloodRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, fmt.Errorf("blood request %s: %w", id, domain.ErrNotFound)
	}
	return &req, nil
}

func (r *bloodRequestRepository) GetView(ctx context.Context, id uuid.UUID) (*domain.BloodRequestView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, fmt.Errorf("blood request %s: %w", id, domain.ErrNotFound)
	}
	view := r.s.viewOf(req)
	return &view, nil
}

func (r *bloodRequestRepository) CompareAndAccept(ctx context.Context, id, accepterID uuid.UUID, at time.Time) (*domain.BloodRequest, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok || req.Status != domain.RequestActive {
		return nil, false, nil
	}
	req.Status = domain.RequestAccepted
	req.AccepterID = &accepterID
	req.AcceptedAt = &at
	req.UpdatedAt = at
	r.s.requests[id] = req
	return &req, true, nil
}

func (r *bloodRequestRepository) UpdateIfState(ctx context.Context, next *domain.BloodRequest, expected domain.RequestStatus, expectedAccepter *uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.requests[next.ID]
	if !ok || cur.Status != expected || !sameID(cur.AccepterID, expectedAccepter) {
		return false, nil
	}

	// Immutable columns come from the stored row.
	updated := *next
	updated.BloodGroup = cur.BloodGroup
	updated.UnitsNeeded = cur.UnitsNeeded
	updated.Latitude, updated.Longitude = cur.Latitude, cur.Longitude
	updated.Address = cur.Address
	updated.ContactPhone, updated.Note = cur.ContactPhone, cur.Note
	updated.RequesterID = cur.RequesterID
	updated.CreatedAt = cur.CreatedAt
	r.s.requests[next.ID] = updated
	return true, nil
}

func (r *bloodRequestRepository) ListOpenInBox(ctx context.Context, box domain.BoundingBox) ([]domain.BloodRequestView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.BloodRequestView
	for i := len(r.s.requestOrder) - 1; i >= 0; i-- {
		req := r.s.requests[r.s.requestOrder[i]]
		if req.Status.IsTerminal() {
			continue
		}
		if req.Latitude < box.MinLat || req.Latitude > box.MaxLat || req.Longitude < box.MinLng || req.Longitude > box.MaxLng {
			continue
		}
		out = append(out, r.s.viewOf(req))
	}
	return out, nil
}

func (r *bloodRequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID, params domain.PaginationParams) ([]domain.BloodRequestView, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []domain.BloodRequestView
	for i := len(r.s.requestOrder) - 1; i >= 0; i-- {
		req := r.s.requests[r.s.requestOrder[i]]
		if req.RequesterID == requesterID {
			all = append(all, r.s.viewOf(req))
		}
	}
	views, total := paginate(all, params)
	return views, total, nil
}

func (r *bloodRequestRepository) ListAcceptedBy(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) ([]domain.BloodRequestView, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[uuid.UUID]bool)
	var all []domain.BloodRequestView
	for i := len(r.s.events) - 1; i >= 0; i-- {
		ev := r.s.events[i]
		if ev.Event != domain.EventAccept || ev.ActorID != actorID || seen[ev.RequestID] {
			continue
		}
		seen[ev.RequestID] = true
		if req, ok := r.s.requests[ev.RequestID]; ok {
			all = append(all, r.s.viewOf(req))
		}
	}
	views, total := paginate(all, params)
	return views, total, nil
}

func (s *Store) viewOf(req domain.BloodRequest) domain.BloodRequestView {
	accepter := req.AccepterID
	if accepter == nil {
		accepter = req.FulfilledBy
	}
	return domain.BloodRequestView{
		BloodRequest:    req,
		RequesterName:   s.actorName(&req.RequesterID),
		AccepterName:    s.actorName(accepter),
		CancelledByName: s.actorName(req.CancelledBy),
	}
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *bloodRequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[domain.RequestStatus]int64)
	for _, req := range r.s.requests {
		counts[req.Status]++
	}
	return counts, nil
}
