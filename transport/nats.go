package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/propagation"

	"github.com/zero-day-ai/cti-sdk/stix"
)

// HeaderWorkID carries the work identifier on published messages.
const HeaderWorkID = "Work-Id"

const flushTimeout = 10 * time.Second

var propagator = propagation.TraceContext{}

// NATSPublisher publishes bundles on a NATS subject.
type NATSPublisher struct {
	conn      *nats.Conn
	subject   string
	connector string
	owned     bool
	now       func() time.Time
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject, connector string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("NATS subject is required")
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := NewNATSPublisherConn(conn, subject, connector)
	p.owned = true
	return p, nil
}

// NewNATSPublisherConn publishes over an existing connection, which the
// caller keeps ownership of.
func NewNATSPublisherConn(conn *nats.Conn, subject, connector string) *NATSPublisher {
	return &NATSPublisher{
		conn:      conn,
		subject:   subject,
		connector: connector,
		now:       time.Now,
	}
}

// Send publishes the bundle envelope and flushes the connection.
func (p *NATSPublisher) Send(ctx context.Context, b stix.Bundle, workID string) error {
	msg, err := p.message(ctx, b, workID)
	if err != nil {
		return err
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", p.subject, err)
	}
	flush := func() error { return p.conn.FlushTimeout(flushTimeout) }
	if _, ok := ctx.Deadline(); ok {
		flush = func() error { return p.conn.FlushWithContext(ctx) }
	}
	if err := flush(); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", p.subject, err)
	}
	return nil
}

// message builds the NATS message, injecting the trace context of ctx.
func (p *NATSPublisher) message(ctx context.Context, b stix.Bundle, workID string) (*nats.Msg, error) {
	data, err := newEnvelope(b, workID, p.connector, p.now())
	if err != nil {
		return nil, err
	}
	hdr := nats.Header{}
	hdr.Set(HeaderWorkID, workID)
	propagator.Inject(ctx, propagation.HeaderCarrier(hdr))
	return &nats.Msg{Subject: p.subject, Data: data, Header: hdr}, nil
}

// Close drains the connection when the publisher opened it.
func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}
