package index

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIndex stores the snapshot as a single JSON value under one key, so
// the wholesale overwrite is one atomic SET.
type RedisIndex struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "minirag:"
	TTL      time.Duration // Expiration for the snapshot, default 0 (no expiration)
}

// NewRedisIndex creates a new Redis-backed side-index.
func NewRedisIndex(opts RedisOptions) *RedisIndex {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "minirag:"
	}

	return &RedisIndex{
		client: client,
		key:    prefix + "embeddings",
		ttl:    opts.TTL,
	}
}

// NewRedisIndexWithClient wraps an existing client, useful for tests.
func NewRedisIndexWithClient(client *redis.Client, prefix string) *RedisIndex {
	if prefix == "" {
		prefix = "minirag:"
	}
	return &RedisIndex{
		client: client,
		key:    prefix + "embeddings",
	}
}

// Persist replaces the snapshot key wholesale.
func (r *RedisIndex) Persist(ctx context.Context, snapshot *Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}
	return nil
}

// Load reads the snapshot key. A missing key or unreachable server is
// reported as ErrIndexUnavailable.
func (r *RedisIndex) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return &snapshot, nil
}

// Close closes the underlying client.
func (r *RedisIndex) Close() error {
	return r.client.Close()
}
