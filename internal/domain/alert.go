package domain

import (
	"time"

	"github.com/google/uuid"
)

// Alert records that a recipient was told about a request in a given dispatch cycle.
// Rows are never updated.
type Alert struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RequestID      uuid.UUID `json:"request_id" db:"request_id"`
	Cycle          int       `json:"cycle" db:"cycle"`
	RecipientID    uuid.UUID `json:"recipient_id" db:"recipient_id"`
	RecipientRole  Role      `json:"recipient_role" db:"recipient_role"`
	DistanceMeters float64   `json:"distance_meters" db:"distance_meters"`
	DispatchedAt   time.Time `json:"dispatched_at" db:"dispatched_at"`
}
