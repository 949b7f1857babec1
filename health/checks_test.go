package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (string, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	addr := listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestNetworkCheck(t *testing.T) {
	host, port := listen(t)

	tests := []struct {
		name          string
		host          string
		port          int
		expectHealthy bool
		wantMessage   string
	}{
		{name: "reachable", host: host, port: port, expectHealthy: true},
		{name: "empty host", host: "", port: 80, wantMessage: "host cannot be empty"},
		{name: "port zero", host: host, port: 0, wantMessage: "invalid port number: 0"},
		{name: "port too large", host: host, port: 70000, wantMessage: "invalid port number: 70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			status := NetworkCheck(ctx, tt.host, tt.port)
			assert.Equal(t, tt.expectHealthy, status.IsHealthy(), status.Message)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, status.Message)
			}
		})
	}
}

func TestNetworkCheckUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	status := NetworkCheck(nil, "127.0.0.1", port)
	assert.True(t, status.IsUnhealthy())
	assert.Equal(t, port, status.Details["port"])
	assert.NotEmpty(t, status.Details["error"])
}

func TestURLCheck(t *testing.T) {
	host, port := listen(t)

	tests := []struct {
		name          string
		url           string
		expectHealthy bool
		wantMessage   string
	}{
		{name: "explicit port", url: fmt.Sprintf("http://%s:%d/graphql", host, port), expectHealthy: true},
		{name: "redis url", url: fmt.Sprintf("redis://%s:%d/0", host, port), expectHealthy: true},
		{name: "no host", url: "opencti", wantMessage: `invalid URL "opencti"`},
		{name: "unknown scheme without port", url: "amqp://rabbit", wantMessage: `no port for URL "amqp://rabbit"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			status := URLCheck(ctx, tt.url)
			assert.Equal(t, tt.expectHealthy, status.IsHealthy(), status.Message)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, status.Message)
			}
		})
	}
}

func TestFileCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.db")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name          string
		path          string
		expectHealthy bool
		wantMessage   string
	}{
		{name: "file", path: file, expectHealthy: true, wantMessage: fmt.Sprintf("file '%s' exists", file)},
		{name: "directory", path: dir, expectHealthy: true, wantMessage: fmt.Sprintf("directory '%s' exists", dir)},
		{name: "missing", path: filepath.Join(dir, "missing"), wantMessage: fmt.Sprintf("path '%s' does not exist", filepath.Join(dir, "missing"))},
		{name: "empty", path: "", wantMessage: "path cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := FileCheck(tt.path)
			assert.Equal(t, tt.expectHealthy, status.IsHealthy())
			assert.Equal(t, tt.wantMessage, status.Message)
		})
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name        string
		checks      []Status
		wantStatus  string
		wantMessage string
	}{
		{
			name:        "no checks",
			wantStatus:  StatusHealthy,
			wantMessage: "no checks provided",
		},
		{
			name:        "all healthy",
			checks:      []Status{Healthy("a"), Healthy("b")},
			wantStatus:  StatusHealthy,
			wantMessage: "all 2 check(s) passed",
		},
		{
			name:        "degraded wins over healthy",
			checks:      []Status{Healthy("a"), Degraded("slow", nil)},
			wantStatus:  StatusDegraded,
			wantMessage: "1 check(s) degraded",
		},
		{
			name:        "unhealthy wins over degraded",
			checks:      []Status{Degraded("slow", nil), Unhealthy("down", nil), Unhealthy("", nil)},
			wantStatus:  StatusUnhealthy,
			wantMessage: "2 check(s) failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(tt.checks...)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}

	t.Run("failed checks are listed", func(t *testing.T) {
		got := Combine(Unhealthy("down", nil), Unhealthy("", nil))
		assert.Equal(t, []string{"down", "unnamed check"}, got.Details["failed_checks"])
	})
}
