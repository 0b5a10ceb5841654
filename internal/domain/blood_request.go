package domain

import (
	"time"

	"github.com/google/uuid"
)

type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

func (g BloodGroup) IsValid() bool {
	switch g {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// Compatible reports whether a donor of group g is matched to a request for want.
// Matching is exact; there is no cross-type donation.
func (g BloodGroup) Compatible(want BloodGroup) bool {
	return g == want
}

type RequestStatus string

const (
	RequestActive    RequestStatus = "active"
	RequestAccepted  RequestStatus = "accepted"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) IsTerminal() bool {
	return s == RequestFulfilled || s == RequestCancelled
}

type BloodRequest struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	BloodGroup         BloodGroup    `json:"blood_group" db:"blood_group"`
	UnitsNeeded        int           `json:"units_needed" db:"units_needed"`
	Latitude           float64       `json:"latitude" db:"latitude"`
	Longitude          float64       `json:"longitude" db:"longitude"`
	Address            string        `json:"address" db:"address"`
	ContactPhone       *string       `json:"contact_phone,omitempty" db:"contact_phone"`
	Note               *string       `json:"note,omitempty" db:"note"`
	RequesterID        uuid.UUID     `json:"requester_id" db:"requester_id"`
	AccepterID         *uuid.UUID    `json:"accepter_id,omitempty" db:"accepter_id"`
	Status             RequestStatus `json:"status" db:"status"`
	ReassignmentCount  int           `json:"reassignment_count" db:"reassignment_count"`
	ReleasedAccepterID *uuid.UUID    `json:"-" db:"released_accepter_id"`
	FulfilledBy        *uuid.UUID    `json:"fulfilled_by,omitempty" db:"fulfilled_by"`
	CancelReason       *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CancelledBy        *uuid.UUID    `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	AcceptedAt         *time.Time    `json:"accepted_at,omitempty" db:"accepted_at"`
	FulfilledAt        *time.Time    `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

func (r *BloodRequest) Location() Point {
	return Point{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Cycle is the dispatch cycle the request is currently in.
func (r *BloodRequest) Cycle() int {
	return r.ReassignmentCount
}

func (r *BloodRequest) IsAcceptedBy(actorID uuid.UUID) bool {
	return r.Status == RequestAccepted && r.AccepterID != nil && *r.AccepterID == actorID
}

type CreateBloodRequestInput struct {
	BloodGroup   BloodGroup `json:"blood_group" validate:"required"`
	UnitsNeeded  int        `json:"units_needed" validate:"required,min=1,max=50"`
	Latitude     *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address      string     `json:"address" validate:"required,max=500"`
	ContactPhone *string    `json:"contact_phone,omitempty" validate:"omitempty,max=20"`
	Note         *string    `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type CancelBloodRequestInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// BloodRequestView is a request row joined with the display names the history screens show.
type BloodRequestView struct {
	BloodRequest
	RequesterName   *string `json:"requester_name" db:"requester_name"`
	AccepterName    *string `json:"accepter_name" db:"accepter_name"`
	CancelledByName *string `json:"cancelled_by_name,omitempty" db:"cancelled_by_name"`
}

// NearbyRequest is an active or accepted request annotated for a specific viewer.
type NearbyRequest struct {
	BloodRequestView
	Distance   float64 `json:"distance"`
	IsAccepted bool    `json:"is_accepted"`
}

type CreateBloodRequestResult struct {
	Request    *BloodRequest `json:"request"`
	AlertsSent int           `json:"alertsSent"`
}
