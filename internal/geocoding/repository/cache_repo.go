package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/natalis-app/natalis-backend/internal/geocoding/domain"
)

const (
	queryKeyPrefix  = "geo:q:" // geo:q:{normalised query} -> JSON candidate list
	defaultCacheTTL = 24 * time.Hour
)

// CacheRepository stores resolved candidate lists in Redis.
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CacheRepository{client: client, ttl: ttl}
}

// Get returns ok=false on a miss.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]domain.Candidate, bool, error) {
	data, err := r.client.Get(ctx, queryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached places: %w", err)
	}

	var items []domain.Candidate
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached places: %w", err)
	}
	return items, true, nil
}

func (r *CacheRepository) Set(ctx context.Context, key string, items []domain.Candidate) error {
	if items == nil {
		items = []domain.Candidate{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal places: %w", err)
	}
	if err := r.client.Set(ctx, queryKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache places: %w", err)
	}
	return nil
}
