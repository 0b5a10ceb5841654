package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Actor        ActorRepository
	BloodRequest BloodRequestRepository
	Alert        AlertRepository
	RequestEvent RequestEventRepository
	Notification NotificationRepository
	Campaign     CampaignRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Actor:        NewActorRepository(db),
		BloodRequest: NewBloodRequestRepository(db),
		Alert:        NewAlertRepository(db),
		RequestEvent: NewRequestEventRepository(db),
		Notification: NewNotificationRepository(db),
		Campaign:     NewCampaignRepository(db),
	}
}
