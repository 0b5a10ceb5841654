package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
)

const (
	cacheKey = "dashboard:stats"
	cacheTTL = time.Minute
)

type Stats struct {
	RequestsByStatus map[domain.RequestStatus]int64 `json:"requests_by_status"`
	OpenRequests     int64                          `json:"open_requests"`
	AlertsDispatched int64                          `json:"alerts_dispatched"`
	ExpiredCampaigns int64                          `json:"expired_campaigns"`
	GeneratedAt      time.Time                      `json:"generated_at"`
}

type Service interface {
	GetStats(ctx context.Context) (*Stats, error)
}

type service struct {
	requestRepo  repository.BloodRequestRepository
	alertRepo    repository.AlertRepository
	campaignRepo repository.CampaignRepository
	redis        *redis.Client
}

// NewService caches stats in Redis for a minute when a client is given.
func NewService(requestRepo repository.BloodRequestRepository, alertRepo repository.AlertRepository, campaignRepo repository.CampaignRepository, redis *redis.Client) Service {
	return &service{
		requestRepo:  requestRepo,
		alertRepo:    alertRepo,
		campaignRepo: campaignRepo,
		redis:        redis,
	}
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var stats Stats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	byStatus, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	alerts, err := s.alertRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expired, err := s.campaignRepo.ListExpired(ctx, now, nil)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		RequestsByStatus: byStatus,
		OpenRequests:     byStatus[domain.RequestActive] + byStatus[domain.RequestAccepted],
		AlertsDispatched: alerts,
		ExpiredCampaigns: int64(len(expired)),
		GeneratedAt:      now,
	}

	if s.redis != nil {
		if statsJSON, err := json.Marshal(stats); err == nil {
			_ = s.redis.Set(ctx, cacheKey, statsJSON, cacheTTL).Err()
		}
	}

	return stats, nil
}
