package docstore

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisAddr   = "localhost:6379"
	defaultRedisPrefix = "patternmark:"
	redisScanCount     = 100
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every document name
}

// RedisStore stores each document as a plain string value at prefix+name.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = defaultRedisAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := connectWithRetry(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, storageErr(err, "connect redis %s", cfg.Addr)
	}
	return NewRedisStoreFromClient(client, cfg.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client. An empty prefix selects
// "patternmark:".
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

func (s *RedisStore) Get(ctx context.Context, key string) (data []byte, hit bool, err error) {
	start := time.Now()
	defer func() { observeRead(ctx, BackendRedis, start, hit, err) }()
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	data, err = s.client.Get(ctx, s.key(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr(err, "redis get %s", key)
	}
	return data, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte) (err error) {
	start := time.Now()
	defer func() { observeWrite(ctx, BackendRedis, start, len(data), err) }()
	if err := ValidateKey(key); err != nil {
		return err
	}
	return storageErr(s.client.Set(ctx, s.key(key), data, 0).Err(), "redis set %s", key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return storageErr(s.client.Del(ctx, s.key(key)).Err(), "redis del %s", key)
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, storageErr(err, "redis scan")
	}
	// SCAN may return a key more than once.
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
