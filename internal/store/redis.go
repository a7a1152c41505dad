package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/diagram-to-compose/composer/internal/topology"
)

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr string
	DB   int
	Key  string
}

// Redis stores the document in a redis string key.
type Redis struct {
	client *redis.Client
	key    string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client, key: cfg.Key}, nil
}

func (r *Redis) Load(ctx context.Context) (topology.Topology, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return topology.Topology{}, ErrNotFound
	}
	if err != nil {
		return topology.Topology{}, fmt.Errorf("read %s: %w", r.key, err)
	}
	return decode(data)
}

func (r *Redis) Save(ctx context.Context, t topology.Topology) error {
	data, err := topology.Marshal(t)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *Redis) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
