package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
)

// incrIfExists increments a counter only when it already exists, so the
// registry can distinguish a missing counter from a bumped one.
var incrIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return redis.call('INCR', KEYS[1])
end
return -1
`)

// RedisStore implements Store on top of a Redis client.
type RedisStore struct {
	client *redis.Client
	logger *log.Entry
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		client: client,
		logger: log.WithField("component", "redis-cache"),
	}
}

// NewRedisStoreWithClient wraps an existing client, used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		logger: log.WithField("component", "redis-cache"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.WithFields(log.Fields{"key": key, "error": err.Error()}).Error("Cache get failed")
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.WithFields(log.Fields{"key": key, "error": err.Error()}).Error("Cache set failed")
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (s *RedisStore) SetInt64(ctx context.Context, key string, value int64) error {
	// Counters carry no TTL; cached payloads expire, versions do not.
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) SetInt64NX(ctx context.Context, key string, value int64) (bool, error) {
	return s.client.SetNX(ctx, key, value, 0).Result()
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	v, err := incrIfExists.Run(ctx, s.client, []string{key}).Int64()
	if err != nil {
		return 0, err
	}
	if v == -1 {
		return 0, ErrCounterNotInitialized
	}
	return v, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
