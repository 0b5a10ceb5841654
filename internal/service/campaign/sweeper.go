package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
)

// Prompter tells a campaign owner that the end date has passed.
type Prompter interface {
	NotifyCampaignExpired(ctx context.Context, c *domain.Campaign) error
}

// PromptLedger remembers which (campaign, end date) pairs were already prompted.
// Unmark hands a pair back after a failed prompt so the next sweep retries it.
type PromptLedger interface {
	MarkPrompted(ctx context.Context, campaignID uuid.UUID, endDate time.Time) (bool, error)
	Unmark(ctx context.Context, campaignID uuid.UUID, endDate time.Time) error
}

// Sweeper periodically prompts owners of campaigns that are past their end date
// but were never ended. It never changes a campaign.
type Sweeper struct {
	svc      Service
	prompter Prompter
	ledger   PromptLedger
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(svc Service, prompter Prompter, ledger PromptLedger, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{svc: svc, prompter: prompter, ledger: ledger, interval: interval, logger: logger}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if n, err := s.SweepOnce(ctx); err != nil {
			s.logger.Error("campaign sweep failed", zap.Error(err))
		} else if n > 0 {
			s.logger.Info("campaign owners prompted", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce prompts each newly expired campaign's owner and returns how many were prompted.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired, err := s.svc.ListExpired(ctx, nil)
	if err != nil {
		return 0, err
	}

	prompted := 0
	for i := range expired {
		c := &expired[i].Campaign
		first, err := s.ledger.MarkPrompted(ctx, c.ID, c.EndDate)
		if err != nil {
			return prompted, err
		}
		if !first {
			continue
		}
		if err := s.prompter.NotifyCampaignExpired(ctx, c); err != nil {
			s.logger.Warn("campaign prompt failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			if err := s.ledger.Unmark(context.WithoutCancel(ctx), c.ID, c.EndDate); err != nil {
				s.logger.Error("campaign prompt unmark failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			}
			continue
		}
		prompted++
	}
	return prompted, nil
}

func promptKey(campaignID uuid.UUID, endDate time.Time) string {
	return fmt.Sprintf("campaign:prompted:%s:%d", campaignID, endDate.Unix())
}

type RedisPromptLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPromptLedger(rdb *redis.Client) *RedisPromptLedger {
	return &RedisPromptLedger{rdb: rdb, ttl: 90 * 24 * time.Hour}
}

func (l *RedisPromptLedger) MarkPrompted(ctx context.Context, campaignID uuid.UUID, endDate time.Time) (bool, error) {
	return l.rdb.SetNX(ctx, promptKey(campaignID, endDate), time.Now().Unix(), l.ttl).Result()
}

func (l *RedisPromptLedger) Unmark(ctx context.Context, campaignID uuid.UUID, endDate time.Time) error {
	return l.rdb.Del(ctx, promptKey(campaignID, endDate)).Err()
}

type MemoryPromptLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryPromptLedger() *MemoryPromptLedger {
	return &MemoryPromptLedger{seen: make(map[string]struct{})}
}

func (l *MemoryPromptLedger) MarkPrompted(_ context.Context, campaignID uuid.UUID, endDate time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := promptKey(campaignID, endDate)
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

func (l *MemoryPromptLedger) Unmark(_ context.Context, campaignID uuid.UUID, endDate time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, promptKey(campaignID, endDate))
	return nil
}
