package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "location:driver:"

// RedisStore хранит последнюю точку водителя в hash location:driver:<id>.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore: ttl > 0 ограничивает время жизни точки.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Put(ctx context.Context, s Sample) error {
	key := keyPrefix + s.DriverID.String()
	fields := map[string]any{
		"lat": strconv.FormatFloat(s.Latitude, 'f', -1, 64),
		"lng": strconv.FormatFloat(s.Longitude, 'f', -1, 64),
		"ts":  s.Timestamp.UnixMicro(),
		"acc": "",
	}
	if s.Accuracy != nil {
		fields["acc"] = strconv.FormatFloat(*s.Accuracy, 'f', -1, 64)
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put location: %w", err)
	}
	return nil
}

func (r *RedisStore) Latest(ctx context.Context, driverID uuid.UUID) (*Sample, error) {
	m, err := r.rdb.HGetAll(ctx, keyPrefix+driverID.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get location: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrNoSample
	}
	s := &Sample{DriverID: driverID}
	if s.Latitude, err = strconv.ParseFloat(m["lat"], 64); err != nil {
		return nil, fmt.Errorf("decode lat: %w", err)
	}
	if s.Longitude, err = strconv.ParseFloat(m["lng"], 64); err != nil {
		return nil, fmt.Errorf("decode lng: %w", err)
	}
	ts, err := strconv.ParseInt(m["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode ts: %w", err)
	}
	s.Timestamp = time.UnixMicro(ts).UTC()
	if v := m["acc"]; v != "" {
		acc, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("decode accuracy: %w", err)
		}
		s.Accuracy = &acc
	}
	return s, nil
}
