package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string

	// Prefix namespaces state keys. Defaults to "connector".
	Prefix string

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration
}

// RedisStore keeps state in Redis as JSON strings.
type RedisStore struct {
	client *redis.Client
	prefix string

	mu     sync.RWMutex
	closed bool
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = "connector"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

func (r *RedisStore) key(connectorID string) string {
	return fmt.Sprintf("%s:%s:state", r.prefix, connectorID)
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, connectorID string) (State, bool, error) {
	if err := checkID(connectorID); err != nil {
		return State{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return State{}, false, ErrClosed
	}

	data, err := r.client.Get(ctx, r.key(connectorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("failed to get state for connector %s: %w", connectorID, err)
	}
	s, err := decode(data)
	if err != nil {
		return State{}, false, err
	}
	return s, true, nil
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, connectorID string, s State) error {
	if err := checkID(connectorID); err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.client.Set(ctx, r.key(connectorID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set state for connector %s: %w", connectorID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}
