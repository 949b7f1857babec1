package template

import (
	"context"
	"time"
)

// IOC is an indicator of compromise listed by a report.
type IOC struct {
	// Type is "url", "domain-name" or "ipv4-addr".
	Type  string
	Value string
	Score int
}

// Report is one record of the feed.
type Report struct {
	Title       string
	Description string
	PublishedAt time.Time
	IOCs        []IOC
}

// Client fetches reports from the feed.
type Client interface {
	FetchReports(ctx context.Context, since time.Time) ([]Report, error)
}

// FakeClient serves a fixed set of reports. Replace it with a client of
// the real source.
type FakeClient struct{}

// FetchReports returns the reports published after since.
func (FakeClient) FetchReports(ctx context.Context, since time.Time) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	published := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	all := []Report{
		{
			Title:       "Report1",
			PublishedAt: published,
			IOCs:        []IOC{{Type: "url", Value: "http://example1.com/", Score: 70}},
		},
		{
			Title:       "Report2",
			PublishedAt: published,
			IOCs: []IOC{
				{Type: "domain-name", Value: "example2.com", Score: 50},
				{Type: "ipv4-addr", Value: "198.51.100.7", Score: 90},
			},
		},
	}

	var out []Report
	for _, r := range all {
		if r.PublishedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}
