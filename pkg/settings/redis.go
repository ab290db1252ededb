package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the settings hashes.
const DefaultRedisPrefix = "ogbrand:settings:"

// RedisStore keeps each scope in one Redis hash named prefix+scope.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects to the Redis server at url (redis://...) and
// verifies the connection with a PING.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) hash(scope Scope) string {
	return s.prefix + scope.String()
}

func (s *RedisStore) Get(ctx context.Context, scope Scope, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.hash(scope), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap(err, "get %s %s", scope, key)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, scope Scope, key, value string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	return s.wrap(s.client.HSet(ctx, s.hash(scope), key, value).Err(), "set %s %s", scope, key)
}

func (s *RedisStore) Delete(ctx context.Context, scope Scope, key string) error {
	return s.wrap(s.client.HDel(ctx, s.hash(scope), key).Err(), "delete %s %s", scope, key)
}

func (s *RedisStore) List(ctx context.Context, scope Scope) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, s.hash(scope)).Result()
	if err != nil {
		return nil, s.wrap(err, "list %s", scope)
	}
	return m, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) wrap(err error, format string, args ...any) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	return storeErr(err, format, args...)
}

var _ Store = (*RedisStore)(nil)
