package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bloodlink/internal/config"
	"bloodlink/internal/geo"
	"bloodlink/internal/repository"
	"bloodlink/internal/service/acceptance"
	"bloodlink/internal/service/actor"
	"bloodlink/internal/service/audit"
	"bloodlink/internal/service/auth"
	"bloodlink/internal/service/bloodrequest"
	"bloodlink/internal/service/campaign"
	"bloodlink/internal/service/dashboard"
	"bloodlink/internal/service/dispatch"
	"bloodlink/internal/service/email"
	"bloodlink/internal/service/lifecycle"
	"bloodlink/internal/service/notification"
)

type Services struct {
	Auth         auth.Service
	Actor        actor.Service
	BloodRequest bloodrequest.Service
	Lifecycle    lifecycle.Service
	Acceptance   acceptance.Service
	Campaign     campaign.Service
	Notification notification.Service
	Email        email.Service
	Audit        audit.Service
	Dashboard    dashboard.Service

	GeoIndex   geo.Index
	Dispatcher *dispatch.Dispatcher
	Sweeper    *campaign.Sweeper
}

// NewServices wires the engine. With a nil Redis client the geo index, the
// dispatch guard and the campaign prompt ledger live in process.
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	var (
		index  geo.Index
		guard  dispatch.Guard
		ledger campaign.PromptLedger
	)
	if rdb != nil {
		index = geo.NewRedisIndex(rdb)
		guard = dispatch.NewRedisGuard(rdb)
		ledger = campaign.NewRedisPromptLedger(rdb)
	} else {
		index = geo.NewMemoryIndex()
		guard = dispatch.NewMemoryGuard()
		ledger = campaign.NewMemoryPromptLedger()
	}

	emailService := email.NewService(cfg)
	notificationService := notification.NewService(repos.Notification, repos.Actor, emailService, cfg.Locale, logger.Named("notification"))

	dispatcher := dispatch.NewDispatcher(index, repos.Alert, guard, notificationService, dispatch.Options{
		BatchSize:    cfg.DispatchBatchSize,
		GeoTimeout:   cfg.GeoTimeout,
		StoreTimeout: cfg.StoreTimeout,
	}, logger.Named("dispatch"))

	lifecycleService := lifecycle.NewService(repos.BloodRequest, repos.RequestEvent, dispatcher, notificationService, cfg.StoreTimeout, logger.Named("lifecycle"))
	acceptanceService := acceptance.NewService(repos.BloodRequest, repos.RequestEvent, dispatcher, notificationService, cfg.StoreTimeout, logger.Named("acceptance"))

	campaignService := campaign.NewService(repos.Campaign, logger.Named("campaign"))
	sweeper := campaign.NewSweeper(campaignService, notificationService, ledger, cfg.CampaignSweepInterval, logger.Named("sweeper"))

	return &Services{
		Auth:         auth.NewService(repos.Actor, cfg.JWTSecret),
		Actor:        actor.NewService(repos.Actor, index, logger.Named("actor")),
		BloodRequest: bloodrequest.NewService(repos.BloodRequest, repos.Alert, repos.RequestEvent, repos.Actor),
		Lifecycle:    lifecycleService,
		Acceptance:   acceptanceService,
		Campaign:     campaignService,
		Notification: notificationService,
		Email:        emailService,
		Audit:        audit.NewService(repos.RequestEvent),
		Dashboard:    dashboard.NewService(repos.BloodRequest, repos.Alert, repos.Campaign, rdb),
		GeoIndex:     index,
		Dispatcher:   dispatcher,
		Sweeper:      sweeper,
	}
}
