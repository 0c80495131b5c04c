package tokenstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCmdable is the subset of redis.Cmdable the store uses.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// RedisStore keeps entries under zurura:<namespace>:<key>. A set at
// zurura:<namespace>:keys indexes them so Clear does not need SCAN.
type RedisStore struct {
	rdb       RedisCmdable
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

type RedisOption func(*RedisStore)

// WithRedisTTL expires entries after ttl; zero keeps them until removed.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

func NewRedisStore(rdb RedisCmdable, namespace string, opts ...RedisOption) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}

	store := &RedisStore{rdb: rdb, namespace: namespace, logger: slog.Default()}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, s.entryKey(key), data, s.ttl).Err(); err != nil {
		logWriteFailure(s.logger, "redis", "set", key, err)
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.indexKey(), key).Err(); err != nil {
		logWriteFailure(s.logger, "redis", "index", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		s.logger.Warn("token store read failed", "backend", "redis", "key", key, "error", err)
		return false
	}
	return decode(data, dst)
}

func (s *RedisStore) Remove(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, s.entryKey(key)).Err(); err != nil {
		logWriteFailure(s.logger, "redis", "remove", key, err)
		return
	}
	if err := s.rdb.SRem(ctx, s.indexKey(), key).Err(); err != nil {
		logWriteFailure(s.logger, "redis", "index", key, err)
	}
}

func (s *RedisStore) Clear(ctx context.Context) {
	members, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		logWriteFailure(s.logger, "redis", "clear", "*", err)
		members = nil
	}

	keys := []string{s.indexKey(), s.entryKey(KeyToken), s.entryKey(KeyUser)}
	for _, member := range members {
		keys = append(keys, s.entryKey(member))
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		logWriteFailure(s.logger, "redis", "clear", "*", err)
	}
}

func (s *RedisStore) entryKey(key string) string {
	return "zurura:" + s.namespace + ":" + key
}

func (s *RedisStore) indexKey() string {
	return "zurura:" + s.namespace + ":keys"
}
