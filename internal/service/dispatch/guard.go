package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Guard marks a (request, cycle) pair as dispatched. Claim reports false when another
// caller already holds the pair; Release gives it back after a failed dispatch so a
// retry can finish the fan-out.
type Guard interface {
	Claim(ctx context.Context, requestID uuid.UUID, cycle int) (bool, error)
	Release(ctx context.Context, requestID uuid.UUID, cycle int) error
}

const guardTTL = 7 * 24 * time.Hour

func guardKey(requestID uuid.UUID, cycle int) string {
	return fmt.Sprintf("dispatch:%s:%d", requestID, cycle)
}

type RedisGuard struct {
	rdb *redis.Client
}

func NewRedisGuard(rdb *redis.Client) *RedisGuard {
	return &RedisGuard{rdb: rdb}
}

func (g *RedisGuard) Claim(ctx context.Context, requestID uuid.UUID, cycle int) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, guardKey(requestID, cycle), time.Now().Unix(), guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("dispatch guard: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, requestID uuid.UUID, cycle int) error {
	return g.rdb.Del(ctx, guardKey(requestID, cycle)).Err()
}

type MemoryGuard struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{claimed: make(map[string]struct{})}
}

func (g *MemoryGuard) Claim(_ context.Context, requestID uuid.UUID, cycle int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := guardKey(requestID, cycle)
	if _, ok := g.claimed[key]; ok {
		return false, nil
	}
	g.claimed[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, requestID uuid.UUID, cycle int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, guardKey(requestID, cycle))
	return nil
}
