package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightpath/attempt-service/internal/models"
	"github.com/brightpath/attempt-service/internal/utils"
)

const (
	snapshotKeyPrefix = "attempt:snapshot:"
	claimKeyPrefix    = "attempt:claim:"
)

type redisCache struct {
	client *redis.Client
	logger utils.Logger
	ttl    time.Duration
}

// NewRedisCache builds an AttemptCache over redis with the given snapshot
// TTL; ttl <= 0 falls back to 24 hours.
func NewRedisCache(client *redis.Client, logger utils.Logger, ttl time.Duration) AttemptCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func (r *redisCache) Get(ctx context.Context, attemptID string) (*models.StartAttemptPayload, error) {
	raw, err := r.client.Get(ctx, snapshotKeyPrefix+attemptID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.StartAttemptPayload
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		r.logger.Warn("Discarding malformed attempt snapshot", "attempt_id", attemptID, "error", err)
		_ = r.client.Del(ctx, snapshotKeyPrefix+attemptID).Err()
		return nil, ErrNotFound
	}
	return &snapshot, nil
}

func (r *redisCache) Put(ctx context.Context, attemptID string, snapshot *models.StartAttemptPayload) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKeyPrefix+attemptID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (r *redisCache) Delete(ctx context.Context, attemptID string) error {
	if err := r.client.Del(ctx, snapshotKeyPrefix+attemptID, claimKeyPrefix+attemptID).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (r *redisCache) Claim(ctx context.Context, attemptID, owner string) (bool, error) {
	key := claimKeyPrefix + attemptID

	acquired, err := r.client.SetNX(ctx, key, owner, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim attempt: %w", err)
	}
	if acquired {
		return true, nil
	}

	holder, err := r.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to read attempt claim: %w", err)
	}
	return holder == owner, nil
}
