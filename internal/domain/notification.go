package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification is a row in an actor's in-app feed. Blood request alerts land here.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	ActorID   uuid.UUID        `json:"actor_id" db:"actor_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      json.RawMessage  `json:"data,omitempty" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type NotificationType string

const (
	NotifBloodAlert       NotificationType = "BLOOD_ALERT"
	NotifRequestAccepted  NotificationType = "REQUEST_ACCEPTED"
	NotifRequestFulfilled NotificationType = "REQUEST_FULFILLED"
	NotifAccepterReleased NotificationType = "ACCEPTER_RELEASED"
	NotifRequestCancelled NotificationType = "REQUEST_CANCELLED"
	NotifCampaignExpired  NotificationType = "CAMPAIGN_EXPIRED"
)
