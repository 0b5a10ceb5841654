package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestEvent is the audit entry written for every lifecycle transition.
type RequestEvent struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	RequestID  uuid.UUID        `json:"request_id" db:"request_id"`
	ActorID    uuid.UUID        `json:"actor_id" db:"actor_id"`
	ActorName  *string          `json:"actor_name,omitempty" db:"actor_name"`
	Event      RequestEventType `json:"event" db:"event"`
	FromStatus *RequestStatus   `json:"from_status,omitempty" db:"from_status"`
	ToStatus   RequestStatus    `json:"to_status" db:"to_status"`
	Reason     *string          `json:"reason,omitempty" db:"reason"`
	Cycle      int              `json:"cycle" db:"cycle"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}
