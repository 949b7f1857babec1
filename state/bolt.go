package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var bucketState = []byte("connector_state")

// BoltStore keeps state in a local bbolt database.
type BoltStore struct {
	db     *bbolt.DB
	mu     sync.RWMutex
	closed bool

	readLatency  metric.Float64Histogram
	writeLatency metric.Float64Histogram
}

// NewBoltStore opens or creates the database at path. A nil meter disables
// latency metrics.
func NewBoltStore(path string, meter metric.Meter) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state database path is required")
	}
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("state")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	opts := &bbolt.Options{
		Timeout:      time.Second,
		FreelistType: bbolt.FreelistArrayType,
	}
	db, err := bbolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	readLatency, _ := meter.Float64Histogram("connector_state_read_ms")
	writeLatency, _ := meter.Float64Histogram("connector_state_write_ms")

	return &BoltStore{
		db:           db,
		readLatency:  readLatency,
		writeLatency: writeLatency,
	}, nil
}

// Load implements Store.
func (b *BoltStore) Load(ctx context.Context, connectorID string) (State, bool, error) {
	if err := checkID(connectorID); err != nil {
		return State{}, false, err
	}
	start := time.Now()
	defer func() {
		b.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "load")))
	}()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return State{}, false, ErrClosed
	}

	var data []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}
		if v := bucket.Get([]byte(connectorID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return State{}, false, fmt.Errorf("read state: %w", err)
	}
	if data == nil {
		return State{}, false, nil
	}
	s, err := decode(data)
	if err != nil {
		return State{}, false, err
	}
	return s, true, nil
}

// Save implements Store.
func (b *BoltStore) Save(ctx context.Context, connectorID string, s State) error {
	if err := checkID(connectorID); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		b.writeLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "save")))
	}()

	data, err := encode(s)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return fmt.Errorf("state bucket not found")
		}
		return bucket.Put([]byte(connectorID), data)
	})
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *BoltStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
