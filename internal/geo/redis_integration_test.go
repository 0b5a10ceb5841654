//go:build integration

package geo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/domain"
)

func TestRedisIndexAgreesWithMemoryIndex(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx := context.Background()
	require.NoError(t, rdb.Del(ctx, redisGeoKey).Err())

	redisIdx := NewRedisIndex(rdb)
	memIdx := NewMemoryIndex()

	distances := []float64{2000, 30000, 34999.9, 35000.1, 40000}
	for i, d := range distances {
		loc := ActorLocation{ActorID: uuid.New(), Role: domain.RoleDonor, BloodGroup: bloodGroup(domain.BloodONeg), Location: at(d, float64(i*70))}
		require.NoError(t, redisIdx.Upsert(ctx, loc))
		require.NoError(t, memIdx.Upsert(ctx, loc))
		defer redisIdx.Remove(ctx, loc.ActorID)
	}

	filter := Filter{BloodGroup: bloodGroup(domain.BloodONeg)}
	fromRedis, err := redisIdx.Query(ctx, bangalore, domain.AlertRadiusMeters, filter)
	require.NoError(t, err)
	fromMemory, err := memIdx.Query(ctx, bangalore, domain.AlertRadiusMeters, filter)
	require.NoError(t, err)

	require.Len(t, fromRedis, 3)
	assert.Equal(t, fromMemory, fromRedis)
}
