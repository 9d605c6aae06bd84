package snapshotstore

import (
	"context"
	"errors"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/departureboard/pkg/ctdf"
)

const redisKeyPrefix = "departureboard:snapshot:"

// RedisStore keeps snapshots as JSON strings that expire after a few missed refreshes
type RedisStore struct {
	Cache  *cache.Cache[string]
	client *redis.Client
}

func NewRedisStore(client *redis.Client, expiration time.Duration) *RedisStore {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &RedisStore{
		Cache:  cache.New[string](redisStore),
		client: client,
	}
}

func (r *RedisStore) Load(ctx context.Context, key string) (*ctdf.FeedSnapshot, error) {
	payload, err := r.Cache.Get(ctx, redisKeyPrefix+key)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decode([]byte(payload))
}

func (r *RedisStore) Save(ctx context.Context, key string, snapshot *ctdf.FeedSnapshot) error {
	payload, err := encode(snapshot)
	if err != nil {
		return err
	}

	return r.Cache.Set(ctx, redisKeyPrefix+key, string(payload))
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *store.NotFound
	return errors.As(err, &notFound) || errors.Is(err, store.NotFound{}) || errors.Is(err, redis.Nil)
}
