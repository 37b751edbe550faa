package redisimpl

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aupe5089/socialcademy/posts"

	"github.com/redis/go-redis/v9"
)

const DefaultTimelineTTL = 10 * time.Minute

const timelineKey = "posts:timeline"

func NewRedisRepository(
	client *redis.Client,
	persistent posts.Repository,
	ttl time.Duration,
) *RedisRepository {
	if ttl <= 0 {
		ttl = DefaultTimelineTTL
	}
	return &RedisRepository{
		client:     client,
		persistent: persistent,
		ttl:        ttl,
	}
}

// RedisRepository caches the ordered post list in front of a persistent
// repository. Cache errors are ignored; the persistent store is the truth.
type RedisRepository struct {
	client     *redis.Client
	persistent posts.Repository
	ttl        time.Duration
}

var _ posts.Repository = (*RedisRepository)(nil)

// FetchPosts serves the cached timeline or reads through and fills it.
func (r *RedisRepository) FetchPosts(ctx context.Context) ([]posts.Post, error) {
	if bytes, err := r.client.Get(ctx, timelineKey).Bytes(); err == nil {
		var cached []posts.Post
		if uErr := json.Unmarshal(bytes, &cached); uErr == nil && cached != nil {
			return cached, nil
		}
	}

	fetched, err := r.persistent.FetchPosts(ctx)
	if err != nil {
		return nil, err
	}
	if raw, mErr := json.Marshal(fetched); mErr == nil {
		_ = r.client.Set(ctx, timelineKey, raw, r.ttl).Err()
	}
	return fetched, nil
}

// Create writes through and drops the cached timeline.
func (r *RedisRepository) Create(ctx context.Context, post posts.Post) error {
	if err := r.persistent.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Delete writes through and drops the cached timeline.
func (r *RedisRepository) Delete(ctx context.Context, post posts.Post) error {
	if err := r.persistent.Delete(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *RedisRepository) invalidate(ctx context.Context) {
	_ = r.client.Del(ctx, timelineKey).Err()
}

// IsReady checks both Redis and the persistent repository health.
func (r *RedisRepository) IsReady(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return false
	}
	if pinger, ok := r.persistent.(posts.Pinger); ok {
		return pinger.IsReady(ctx)
	}
	return true
}
