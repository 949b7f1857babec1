package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zero-day-ai/cti-sdk/stix"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Key is the list envelopes are pushed to. Defaults to "opencti:bundles".
	Key string

	// Announce publishes a Notice on <Key>:events after each push.
	Announce bool

	// Connector is recorded in every envelope.
	Connector string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisQueue queues bundles on a Redis list.
type RedisQueue struct {
	client    *redis.Client
	key       string
	announce  bool
	connector string
	now       func() time.Time
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(opts RedisOptions) (*RedisQueue, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = "opencti:bundles"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{
		client:    client,
		key:       opts.Key,
		announce:  opts.Announce,
		connector: opts.Connector,
		now:       time.Now,
	}, nil
}

// Key returns the list the queue pushes to.
func (q *RedisQueue) Key() string {
	return q.key
}

// Events returns the pub/sub channel notices are published on.
func (q *RedisQueue) Events() string {
	return q.key + ":events"
}

// Send pushes the bundle envelope onto the queue.
func (q *RedisQueue) Send(ctx context.Context, b stix.Bundle, workID string) error {
	data, err := newEnvelope(b, workID, q.connector, q.now())
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", q.key, err)
	}
	if !q.announce {
		return nil
	}

	notice, err := json.Marshal(Notice{WorkID: workID, BundleID: b.ID, Objects: b.Len()})
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	if err := q.client.Publish(ctx, q.Events(), notice).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", q.Events(), err)
	}
	return nil
}

// Pop removes the oldest envelope, waiting up to timeout for one to arrive.
// It returns nil when the wait times out.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Envelope, *stix.Bundle, error) {
	// BRPOP returns [queue_name, value]
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to pop from queue %s: %w", q.key, err)
	}
	if len(result) != 2 {
		return nil, nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	env, b, err := DecodeEnvelope([]byte(result[1]))
	if err != nil {
		return nil, nil, err
	}
	return &env, &b, nil
}

// Backlog returns the number of envelopes waiting in the queue.
func (q *RedisQueue) Backlog(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of queue %s: %w", q.key, err)
	}
	return n, nil
}

// Heartbeat marks the connector alive for ttl.
func (q *RedisQueue) Heartbeat(ctx context.Context, connectorID string, ttl time.Duration) error {
	healthKey := fmt.Sprintf("connector:%s:health", connectorID)
	if err := q.client.Set(ctx, healthKey, "ok", ttl).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat for connector %s: %w", connectorID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
