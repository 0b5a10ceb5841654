package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDonor     Role = "donor"
	RoleBloodBank Role = "blood_bank"
	RoleNGO       Role = "ngo"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleDonor, RoleBloodBank, RoleNGO, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanRespond reports whether actors of this role can receive alerts and accept requests.
func (r Role) CanRespond() bool {
	return r == RoleDonor || r == RoleBloodBank || r == RoleNGO
}

type Actor struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Email      *string     `json:"email,omitempty" db:"email"`
	Role       Role        `json:"role" db:"role"`
	BloodGroup *BloodGroup `json:"blood_group,omitempty" db:"blood_group"`
	Latitude   *float64    `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64    `json:"longitude,omitempty" db:"longitude"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// Location is nil for actors that never pushed a position.
func (a *Actor) Location() *Point {
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	return &Point{Latitude: *a.Latitude, Longitude: *a.Longitude}
}

func (a *Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// UpdateLocationInput clears the stored location when both coordinates are null.
type UpdateLocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude,omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude,omitempty,gte=-180,lte=180"`
}

type UpdateProfileInput struct {
	Name       *string     `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email      *string     `json:"email,omitempty" validate:"omitempty,email"`
	BloodGroup *BloodGroup `json:"blood_group,omitempty"`
}
