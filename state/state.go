package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/zero-day-ai/cti-sdk/config"
)

var (
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("state store is closed")

	// ErrInvalidConnectorID is returned for empty connector identifiers.
	ErrInvalidConnectorID = errors.New("connector id is required")
)

// State is what a connector remembers between runs.
type State struct {
	// LastRun is when the last successful run finished.
	LastRun time.Time `json:"last_run,omitempty"`

	// LastWorkID identifies the last successful run.
	LastWorkID string `json:"last_work_id,omitempty"`

	// Cursor is an opaque collector position, such as a page token.
	Cursor string `json:"cursor,omitempty"`

	// Values holds connector specific entries.
	Values map[string]string `json:"values,omitempty"`
}

// IsZero reports whether the state has never been saved.
func (s State) IsZero() bool {
	return s.LastRun.IsZero() && s.LastWorkID == "" && s.Cursor == "" && len(s.Values) == 0
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Values = maps.Clone(s.Values)
	return s
}

// Store loads and saves connector state.
type Store interface {
	// Load returns the saved state. found is false when nothing was saved.
	Load(ctx context.Context, connectorID string) (s State, found bool, err error)

	// Save replaces the saved state.
	Save(ctx context.Context, connectorID string, s State) error

	// Close releases the store.
	Close() error
}

func encode(s State) ([]byte, error) {
	s.LastRun = s.LastRun.UTC().Truncate(time.Second)
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

func decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return s, nil
}

func checkID(connectorID string) error {
	if strings.TrimSpace(connectorID) == "" {
		return ErrInvalidConnectorID
	}
	return nil
}

// MemoryStore keeps state in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, connectorID string) (State, bool, error) {
	if err := checkID(connectorID); err != nil {
		return State{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return State{}, false, ErrClosed
	}
	s, ok := m.states[connectorID]
	return s.Clone(), ok, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, connectorID string, s State) error {
	if err := checkID(connectorID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	s.LastRun = s.LastRun.UTC().Truncate(time.Second)
	m.states[connectorID] = s.Clone()
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Open creates the store selected by cfg. The bbolt store records latency
// on the global meter provider.
func Open(cfg config.State) (Store, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		s, err := NewBoltStore(cfg.Path, otel.GetMeterProvider().Meter("github.com/zero-day-ai/cti-sdk/state"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		s, err := NewRedisStore(RedisOptions{URL: cfg.Address})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendEtcd:
		var endpoints []string
		for _, ep := range strings.Split(cfg.Address, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				endpoints = append(endpoints, ep)
			}
		}
		s, err := NewEtcdStore(EtcdOptions{Endpoints: endpoints})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
}
