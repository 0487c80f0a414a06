package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Backend selects and configures a Store implementation.
type Backend struct {
	Kind          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// Open builds the store named by b.Kind. Redis is pinged before returning.
func Open(ctx context.Context, b Backend) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(b.Kind)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, b.SQLitePath)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     b.RedisAddr,
			Password: b.RedisPassword,
			DB:       b.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis %s: %w", b.RedisAddr, err)
		}
		return NewRedisStore(client, WithTTL(b.RedisTTL)), nil
	default:
		return nil, errorf(ErrUnknownStore, "%q", b.Kind)
	}
}
