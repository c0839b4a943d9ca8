package cart

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Storage is durable key/value storage shared by every storefront context.
type Storage interface {
	// Get returns the raw value; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type redisStorage struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStorage(redisClient *redis.Client, keyPrefix string) Storage {
	return &redisStorage{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (s *redisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, true, nil
}

func (s *redisStorage) Set(ctx context.Context, key, value string) error {
	err := s.redisClient.Set(ctx, s.keyPrefix+key, value, 0).Err() // No expiration
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// memoryStorage keeps values in process; used for single-process setups and tests.
type memoryStorage struct {
	c *gocache.Cache
}

func NewMemoryStorage() Storage {
	return &memoryStorage{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}
