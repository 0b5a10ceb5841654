package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type alertRepository struct {
	s *Store
}

func (r *alertRepository) InsertBatch(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var inserted []domain.Alert
	for _, a := range alerts {
		key := alertKey{requestID: a.RequestID, cycle: a.Cycle, recipientID: a.RecipientID}
		if _, dup := r.s.alertKeys[key]; dup {
			continue
		}
		r.s.alertKeys[key] = struct{}{}
		r.s.alerts = append(r.s.alerts, a)
		inserted = append(inserted, a)
	}
	return inserted, nil
}

func (r *alertRepository) CountForCycle(ctx context.Context, requestID uuid.UUID, cycle int) (int, error) {
	alerts, err := r.ListForCycle(ctx, requestID, cycle)
	return len(alerts), err
}

func (r *alertRepository) ListForCycle(ctx context.Context, requestID uuid.UUID, cycle int) ([]domain.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Alert
	for _, a := range r.s.alerts {
		if a.RequestID == requestID && a.Cycle == cycle {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].RecipientID.String() < out[j].RecipientID.String()
	})
	return out, nil
}

func (r *alertRepository) HasAlert(ctx context.Context, requestID, recipientID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.alerts {
		if a.RequestID == requestID && a.RecipientID == recipientID {
			return true, nil
		}
	}
	return false, nil
}

func (r *alertRepository) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return int64(len(r.s.alerts)), nil
}
