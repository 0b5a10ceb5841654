package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/domain"
)

type campaignRepository struct {
	s *Store
}

func (r *campaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.s.campaigns[c.ID] = *c
	r.s.campaignOrder = append(r.s.campaignOrder, c.ID)
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *campaignRepository) Update(ctx context.Context, c *domain.Campaign) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.campaigns[c.ID]
	if !ok || cur.Ended {
		return false, nil
	}
	cur.Title = c.Title
	cur.StartDate = c.StartDate
	cur.EndDate = c.EndDate
	cur.PartnerBankIDs = c.PartnerBankIDs
	cur.UpdatedAt = r.s.now()
	r.s.campaigns[c.ID] = cur
	c.UpdatedAt = cur.UpdatedAt
	return true, nil
}

func (r *campaignRepository) End(ctx context.Context, id uuid.UUID, unitsCollected int, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.campaigns[id]
	if !ok || cur.Ended {
		return false, nil
	}
	units := unitsCollected
	cur.Ended = true
	cur.EndedAt = &at
	cur.BloodUnitsCollected = &units
	cur.UpdatedAt = at
	r.s.campaigns[id] = cur
	return true, nil
}

func (r *campaignRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params domain.PaginationParams) ([]domain.Campaign, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []domain.Campaign
	for _, id := range r.s.campaignOrder {
		if c := r.s.campaigns[id]; c.OwnerID == ownerID {
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].StartDate.After(all[j].StartDate) })
	out, total := paginate(all, params)
	return out, total, nil
}

func (r *campaignRepository) ListExpired(ctx context.Context, now time.Time, ownerID *uuid.UUID) ([]domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Campaign
	for _, id := range r.s.campaignOrder {
		c := r.s.campaigns[id]
		if ownerID != nil && c.OwnerID != *ownerID {
			continue
		}
		if domain.CheckExpired(&c, now) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}
