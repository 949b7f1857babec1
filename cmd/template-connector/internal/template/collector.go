package template

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zero-day-ai/cti-sdk/connector"
)

// Collector fetches the reports published since the previous run.
type Collector struct {
	client   Client
	lookback time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewCollector creates a collector. The first run reaches back lookback.
func NewCollector(client Client, lookback time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{client: client, lookback: lookback, logger: logger, now: time.Now}
}

// Collect implements connector.Collector.
func (c *Collector) Collect(ctx context.Context) ([]Report, error) {
	since := connector.StateFromContext(ctx).LastRun
	if since.IsZero() {
		since = c.now().Add(-c.lookback)
	}
	c.logger.Info("fetching reports", "since", since.UTC().Format(time.RFC3339))

	reports, err := c.client.FetchReports(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}
	return reports, nil
}
