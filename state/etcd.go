package state

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdOptions configures an EtcdStore.
type EtcdOptions struct {
	// Endpoints lists the etcd members (e.g., "localhost:2379").
	Endpoints []string

	// Namespace prefixes every key. Defaults to "opencti".
	Namespace string

	// DialTimeout defaults to 5 seconds.
	DialTimeout time.Duration

	// TLS enables mutual TLS when set.
	TLS *TLSOptions
}

// TLSOptions holds the client certificate files for etcd.
type TLSOptions struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

// clientConfig loads the certificate files into a tls.Config.
func (o *TLSOptions) clientConfig() (*tls.Config, error) {
	if o.CertFile == "" {
		return nil, fmt.Errorf("TLS cert file is required when TLS is enabled")
	}
	if o.KeyFile == "" {
		return nil, fmt.Errorf("TLS key file is required when TLS is enabled")
	}
	if o.CAFile == "" {
		return nil, fmt.Errorf("TLS CA file is required when TLS is enabled")
	}

	cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}
	caData, err := os.ReadFile(o.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caData) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// EtcdStore keeps state in etcd.
//
// Thread-safety: All methods are safe for concurrent use.
type EtcdStore struct {
	client    *clientv3.Client
	namespace string

	mu     sync.RWMutex
	closed bool
}

// NewEtcdStore connects to the etcd cluster and verifies connectivity.
func NewEtcdStore(opts EtcdOptions) (*EtcdStore, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	if opts.Namespace == "" {
		opts.Namespace = "opencti"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	clientCfg := clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	}
	if opts.TLS != nil {
		tlsConfig, err := opts.TLS.clientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := cli.Get(ctx, "health-check"); err != nil {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &EtcdStore{client: cli, namespace: opts.Namespace}, nil
}

// stateKey builds /namespace/connectors/id/state.
func stateKey(namespace, connectorID string) string {
	return fmt.Sprintf("/%s/connectors/%s/state", namespace, connectorID)
}

// Load implements Store.
func (e *EtcdStore) Load(ctx context.Context, connectorID string) (State, bool, error) {
	if err := checkID(connectorID); err != nil {
		return State{}, false, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return State{}, false, ErrClosed
	}

	resp, err := e.client.Get(ctx, stateKey(e.namespace, connectorID))
	if err != nil {
		return State{}, false, fmt.Errorf("failed to get state: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return State{}, false, nil
	}
	s, err := decode(resp.Kvs[0].Value)
	if err != nil {
		return State{}, false, err
	}
	return s, true, nil
}

// Save implements Store.
func (e *EtcdStore) Save(ctx context.Context, connectorID string, s State) error {
	if err := checkID(connectorID); err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	if _, err := e.client.Put(ctx, stateKey(e.namespace, connectorID), string(data)); err != nil {
		return fmt.Errorf("failed to put state: %w", err)
	}
	return nil
}

// Close closes the etcd connection.
func (e *EtcdStore) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.client.Close()
}
