package geo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bloodlink/internal/domain"
)

const (
	redisGeoKey       = "geo:actors"
	redisActorKeyBase = "geo:actor:"

	// Redis measures with a slightly different Earth radius; search a little wider and
	// re-apply DistanceMeters so both index implementations agree at the boundary.
	searchMarginRatio  = 0.001
	searchMarginMeters = 10.0
)

// RedisIndex keeps positions in a GEO sorted set and the exact coordinates plus
// role metadata in one hash per actor.
type RedisIndex struct {
	rdb *redis.Client
}

func NewRedisIndex(rdb *redis.Client) *RedisIndex {
	return &RedisIndex{rdb: rdb}
}

func actorKey(id uuid.UUID) string {
	return redisActorKeyBase + id.String()
}

func (r *RedisIndex) Upsert(ctx context.Context, loc ActorLocation) error {
	fields := map[string]any{
		"role": string(loc.Role),
		"lat":  strconv.FormatFloat(loc.Location.Latitude, 'f', -1, 64),
		"lng":  strconv.FormatFloat(loc.Location.Longitude, 'f', -1, 64),
	}
	if loc.BloodGroup != nil {
		fields["blood_group"] = string(*loc.BloodGroup)
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, redisGeoKey, &redis.GeoLocation{
			Name:      loc.ActorID.String(),
			Longitude: loc.Location.Longitude,
			Latitude:  loc.Location.Latitude,
		})
		pipe.Del(ctx, actorKey(loc.ActorID))
		pipe.HSet(ctx, actorKey(loc.ActorID), fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("geo upsert %s: %w", loc.ActorID, err)
	}
	return nil
}

func (r *RedisIndex) Remove(ctx context.Context, actorID uuid.UUID) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, redisGeoKey, actorID.String())
		pipe.Del(ctx, actorKey(actorID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("geo remove %s: %w", actorID, err)
	}
	return nil
}

func (r *RedisIndex) Locate(ctx context.Context, actorID uuid.UUID) (*ActorLocation, error) {
	fields, err := r.rdb.HGetAll(ctx, actorKey(actorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("geo locate %s: %w", actorID, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotIndexed
	}
	loc, err := parseActorFields(actorID, fields)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *RedisIndex) Query(ctx context.Context, center domain.Point, radiusMeters float64, filter Filter) ([]Hit, error) {
	members, err := r.rdb.GeoSearch(ctx, redisGeoKey, &redis.GeoSearchQuery{
		Longitude:  center.Longitude,
		Latitude:   center.Latitude,
		Radius:     radiusMeters*(1+searchMarginRatio) + searchMarginMeters,
		RadiusUnit: "m",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(members))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			cmds[i] = pipe.HGetAll(ctx, redisActorKeyBase+m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("geo metadata: %w", err)
	}

	hits := make([]Hit, 0, len(members))
	for i, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		loc, err := parseActorFields(id, fields)
		if err != nil {
			return nil, err
		}
		if !filter.Matches(loc) {
			continue
		}
		d := domain.DistanceMeters(center, loc.Location)
		if !domain.InRadius(d, radiusMeters) {
			continue
		}
		hits = append(hits, Hit{ActorID: id, Role: loc.Role, BloodGroup: loc.BloodGroup, DistanceMeters: d})
	}

	sortHits(hits)
	return hits, nil
}

func parseActorFields(id uuid.UUID, fields map[string]string) (ActorLocation, error) {
	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return ActorLocation{}, fmt.Errorf("geo metadata %s: bad latitude: %w", id, err)
	}
	lng, err := strconv.ParseFloat(fields["lng"], 64)
	if err != nil {
		return ActorLocation{}, fmt.Errorf("geo metadata %s: bad longitude: %w", id, err)
	}

	loc := ActorLocation{
		ActorID:  id,
		Role:     domain.Role(fields["role"]),
		Location: domain.Point{Latitude: lat, Longitude: lng},
	}
	if g, ok := fields["blood_group"]; ok && g != "" {
		bg := domain.BloodGroup(g)
		loc.BloodGroup = &bg
	}
	return loc, nil
}
