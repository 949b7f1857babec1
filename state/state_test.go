package state

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/cti-sdk/config"
)

func newRedisStore(t *testing.T) Store {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	return s
}

func newBoltStore(t *testing.T) Store {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "state", "state.db"), nil)
	require.NoError(t, err)
	return s
}

// TestStores runs the same contract against every store that needs no
// external service.
func TestStores(t *testing.T) {
	stores := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: "memory", open: func(*testing.T) Store { return NewMemoryStore() }},
		{name: "bbolt", open: newBoltStore},
		{name: "redis", open: newRedisStore},
	}

	for _, tc := range stores {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := tc.open(t)

			t.Run("load before save", func(t *testing.T) {
				s, found, err := store.Load(ctx, "weekly-feed")
				require.NoError(t, err)
				assert.False(t, found)
				assert.True(t, s.IsZero())
			})

			t.Run("save and load", func(t *testing.T) {
				lastRun := time.Date(2024, 1, 1, 10, 30, 15, 500, time.FixedZone("CET", 3600))
				require.NoError(t, store.Save(ctx, "weekly-feed", State{
					LastRun:    lastRun,
					LastWorkID: "work-1",
					Cursor:     "page-7",
					Values:     map[string]string{"etag": "abc"},
				}))

				s, found, err := store.Load(ctx, "weekly-feed")
				require.NoError(t, err)
				require.True(t, found)
				assert.True(t, s.LastRun.Equal(time.Date(2024, 1, 1, 9, 30, 15, 0, time.UTC)))
				assert.Equal(t, time.UTC, s.LastRun.Location())
				assert.Equal(t, "work-1", s.LastWorkID)
				assert.Equal(t, "page-7", s.Cursor)
				assert.Equal(t, map[string]string{"etag": "abc"}, s.Values)
			})

			t.Run("connectors are isolated", func(t *testing.T) {
				_, found, err := store.Load(ctx, "other-feed")
				require.NoError(t, err)
				assert.False(t, found)
			})

			t.Run("save replaces", func(t *testing.T) {
				require.NoError(t, store.Save(ctx, "weekly-feed", State{LastWorkID: "work-2"}))
				s, _, err := store.Load(ctx, "weekly-feed")
				require.NoError(t, err)
				assert.Equal(t, "work-2", s.LastWorkID)
				assert.Empty(t, s.Cursor)
				assert.Nil(t, s.Values)
			})

			t.Run("empty connector id", func(t *testing.T) {
				_, _, err := store.Load(ctx, " ")
				assert.ErrorIs(t, err, ErrInvalidConnectorID)
				assert.ErrorIs(t, store.Save(ctx, "", State{}), ErrInvalidConnectorID)
			})

			t.Run("closed", func(t *testing.T) {
				require.NoError(t, store.Close())
				require.NoError(t, store.Close())
				_, _, err := store.Load(ctx, "weekly-feed")
				assert.ErrorIs(t, err, ErrClosed)
				assert.ErrorIs(t, store.Save(ctx, "weekly-feed", State{}), ErrClosed)
			})
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	values := map[string]string{"k": "v"}
	require.NoError(t, store.Save(ctx, "feed", State{Values: values}))
	values["k"] = "changed"

	s, _, err := store.Load(ctx, "feed")
	require.NoError(t, err)
	assert.Equal(t, "v", s.Values["k"])

	s.Values["k"] = "mutated"
	again, _, err := store.Load(ctx, "feed")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Values["k"])
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := NewBoltStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "feed", State{LastWorkID: "work-1"}))
	require.NoError(t, first.Close())

	second, err := NewBoltStore(path, nil)
	require.NoError(t, err)
	defer second.Close()

	s, found, err := second.Load(ctx, "feed")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "work-1", s.LastWorkID)
}

func TestNewStoreErrors(t *testing.T) {
	_, err := NewBoltStore("", nil)
	assert.ErrorContains(t, err, "path is required")

	_, err = NewRedisStore(RedisOptions{URL: "invalid://url"})
	assert.ErrorContains(t, err, "failed to parse Redis URL")

	_, err = NewEtcdStore(EtcdOptions{})
	assert.ErrorContains(t, err, "etcd endpoints cannot be empty")

	_, err = NewEtcdStore(EtcdOptions{Endpoints: []string{"localhost:2379"}, TLS: &TLSOptions{CertFile: "c.pem"}})
	assert.ErrorContains(t, err, "TLS key file is required")
}

func TestStateKey(t *testing.T) {
	assert.Equal(t, "/opencti/connectors/weekly-feed/state", stateKey("opencti", "weekly-feed"))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.State
		want    any
		wantErr string
	}{
		{
			name: "bbolt",
			cfg:  config.State{Backend: config.BackendBolt, Path: filepath.Join(t.TempDir(), "state.db")},
			want: &BoltStore{},
		},
		{
			name: "memory",
			cfg:  config.State{Backend: "memory"},
			want: &MemoryStore{},
		},
		{
			name:    "etcd without endpoints",
			cfg:     config.State{Backend: config.BackendEtcd, Address: " , "},
			wantErr: "etcd endpoints cannot be empty",
		},
		{
			name:    "unknown",
			cfg:     config.State{Backend: "sqlite"},
			wantErr: `unknown state backend "sqlite"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := Open(config.State{Backend: config.BackendRedis, Address: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), "feed", State{Cursor: "c1"}))
	assert.True(t, mr.Exists("connector:feed:state"))
}
