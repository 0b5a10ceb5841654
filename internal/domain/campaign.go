package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CampaignStatus string

const (
	CampaignUpcoming CampaignStatus = "upcoming"
	CampaignActive   CampaignStatus = "active"
	CampaignEnded    CampaignStatus = "ended"
)

type Campaign struct {
	ID                  uuid.UUID      `json:"id" db:"id"`
	OwnerID             uuid.UUID      `json:"owner_id" db:"owner_id"`
	Title               string         `json:"title" db:"title"`
	StartDate           time.Time      `json:"start_date" db:"start_date"`
	EndDate             time.Time      `json:"end_date" db:"end_date"`
	Ended               bool           `json:"-" db:"ended"`
	EndedAt             *time.Time     `json:"ended_at,omitempty" db:"ended_at"`
	BloodUnitsCollected *int           `json:"blood_units_collected" db:"blood_units_collected"`
	PartnerBankIDs      pq.StringArray `json:"partner_bank_ids" db:"partner_bank_ids"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

// Status is derived from the dates; only an explicit end makes a campaign ended.
func (c *Campaign) Status(now time.Time) CampaignStatus {
	switch {
	case c.Ended:
		return CampaignEnded
	case now.Before(c.StartDate):
		return CampaignUpcoming
	default:
		return CampaignActive
	}
}

// CheckExpired reports whether the end date has passed on a campaign that was never ended.
// It has no side effects; an expired campaign stays active until its owner ends or extends it.
func CheckExpired(c *Campaign, now time.Time) bool {
	return !c.Ended && now.After(c.EndDate)
}

// CampaignView is what clients receive: the stored row plus derived status fields.
type CampaignView struct {
	Campaign
	Status    CampaignStatus `json:"status"`
	IsExpired bool           `json:"is_expired"`
}

func NewCampaignView(c Campaign, now time.Time) CampaignView {
	return CampaignView{Campaign: c, Status: c.Status(now), IsExpired: CheckExpired(&c, now)}
}

type CreateCampaignInput struct {
	Title          string      `json:"title" validate:"required,max=200"`
	StartDate      time.Time   `json:"start_date" validate:"required"`
	EndDate        time.Time   `json:"end_date" validate:"required,gtfield=StartDate"`
	PartnerBankIDs []uuid.UUID `json:"partner_bank_ids,omitempty"`
}

type UpdateCampaignInput struct {
	Title          *string     `json:"title,omitempty" validate:"omitempty,max=200"`
	StartDate      *time.Time  `json:"start_date,omitempty"`
	EndDate        *time.Time  `json:"end_date,omitempty"`
	PartnerBankIDs []uuid.UUID `json:"partner_bank_ids,omitempty"`
}

type EndCampaignInput struct {
	BloodUnitsCollected *int `json:"blood_units_collected" validate:"required,min=0"`
}

type ExtendCampaignInput struct {
	EndDate time.Time `json:"end_date" validate:"required"`
}
