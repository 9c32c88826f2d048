package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig mirrors config.RedisConfig.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// NewRedisClient connects and pings with a short timeout. It returns nil when
// Addr is empty or the server is unreachable; callers fall back to Noop.
func NewRedisClient(ctx context.Context, cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, caching disabled", slog.String("addr", cfg.Addr), slog.Any("error", err))
		_ = client.Close()
		return nil
	}
	return client
}

// Redis is a Cache backed by go-redis. Entries live under
// prefix:namespace:v<version>:sha1(key); the namespace version is a counter
// at prefix:version:namespace.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "cache"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(namespace string, version int64, key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%s:%s:v%d:%x", r.prefix, cleanNamespace(namespace), version, sum[:])
}

func (r *Redis) versionKey(namespace string) string {
	return fmt.Sprintf("%s:version:%s", r.prefix, cleanNamespace(namespace))
}

func (r *Redis) pattern(namespace string) string {
	return fmt.Sprintf("%s:%s:v*", r.prefix, cleanNamespace(namespace))
}

func (r *Redis) Version(ctx context.Context, namespace string) (int64, error) {
	version, err := r.client.Get(ctx, r.versionKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (r *Redis) Get(ctx context.Context, namespace, key string, out any) (bool, error) {
	version, err := r.Version(ctx, namespace)
	if err != nil {
		return false, err
	}
	data, err := r.client.Get(ctx, r.key(namespace, version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Set writes under version; a stale version lands on a key no reader asks for
// and expires with the TTL.
func (r *Redis) Set(ctx context.Context, namespace, key string, version int64, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(namespace, version, key), data, r.ttl).Err()
}

// Invalidate advances the namespace version, then deletes the old entries
// using SCAN so Redis is never blocked.
func (r *Redis) Invalidate(ctx context.Context, namespace string) error {
	if err := r.client.Incr(ctx, r.versionKey(namespace)).Err(); err != nil {
		return err
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.pattern(namespace), 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var (
	_ Cache = (*Redis)(nil)
	_ Cache = (*Memory)(nil)
	_ Cache = Noop{}
)
