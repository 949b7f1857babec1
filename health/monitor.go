package health

import (
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Monitor tracks run outcomes of one connector. It is safe for concurrent use.
type Monitor struct {
	service string
	maxAge  time.Duration
	now     func() time.Time

	mu          sync.RWMutex
	started     time.Time
	lastRun     time.Time
	lastSuccess time.Time
	lastErr     error
	runs        int
	grpc        *health.Server
}

// NewMonitor creates a monitor for service. A connector whose last success
// is older than maxAge is reported degraded; zero disables the age check.
func NewMonitor(service string, maxAge time.Duration) *Monitor {
	return &Monitor{
		service: service,
		maxAge:  maxAge,
		now:     time.Now,
		started: time.Now(),
	}
}

// Service returns the name the monitor reports under.
func (m *Monitor) Service() string {
	return m.service
}

// attach publishes every status change to srv.
func (m *Monitor) attach(srv *health.Server) {
	m.mu.Lock()
	m.grpc = srv
	m.mu.Unlock()
	m.publish()
}

// RecordRun records the outcome of a run finished at.
func (m *Monitor) RecordRun(at time.Time, err error) {
	m.mu.Lock()
	m.runs++
	m.lastRun = at
	m.lastErr = err
	if err == nil {
		m.lastSuccess = at
	}
	m.mu.Unlock()
	m.publish()
}

// Ready reports whether a run has succeeded since the process started.
func (m *Monitor) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.lastSuccess.IsZero()
}

// Status returns the current connector status.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := map[string]any{
		"service": m.service,
		"runs":    m.runs,
	}
	if !m.lastRun.IsZero() {
		details["last_run"] = m.lastRun.UTC().Format(time.RFC3339)
	}
	if !m.lastSuccess.IsZero() {
		details["last_success"] = m.lastSuccess.UTC().Format(time.RFC3339)
	}

	if m.lastErr != nil {
		details["error"] = m.lastErr.Error()
		return Unhealthy("last run failed", details)
	}

	since := m.lastSuccess
	if since.IsZero() {
		since = m.started
	}
	if m.maxAge > 0 && m.now().Sub(since) > m.maxAge {
		return Degraded(fmt.Sprintf("no successful run for %s", m.now().Sub(since).Truncate(time.Second)), details)
	}
	if m.runs == 0 {
		return Healthy("waiting for first run")
	}
	return Healthy("last run succeeded")
}

func (m *Monitor) publish() {
	m.mu.RLock()
	srv := m.grpc
	m.mu.RUnlock()
	if srv == nil {
		return
	}

	serving := grpc_health_v1.HealthCheckResponse_SERVING
	if m.Status().IsUnhealthy() {
		serving = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	srv.SetServingStatus("", serving)
	srv.SetServingStatus(m.service, serving)
}
