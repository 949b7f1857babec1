package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zero-day-ai/cti-sdk/stix"
)

var (
	// ErrMissingWorkID is returned when Send is called without a work identifier.
	ErrMissingWorkID = errors.New("transport: work id is required")

	// ErrInvalidEnvelope is returned when a received envelope cannot be decoded.
	ErrInvalidEnvelope = errors.New("transport: invalid envelope")
)

// Transport delivers a bundle produced by one unit of work.
type Transport interface {
	Send(ctx context.Context, b stix.Bundle, workID string) error
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, b stix.Bundle, workID string) error

// Send calls f.
func (f Func) Send(ctx context.Context, b stix.Bundle, workID string) error {
	return f(ctx, b, workID)
}

// Multi sends every bundle to each transport in order. A failing transport
// does not stop the others; the returned error joins every failure.
type Multi []Transport

// Send implements Transport.
func (m Multi) Send(ctx context.Context, b stix.Bundle, workID string) error {
	var errs []error
	for i, t := range m {
		if t == nil {
			continue
		}
		if err := t.Send(ctx, b, workID); err != nil {
			errs = append(errs, fmt.Errorf("transport %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Envelope is the message queued or published for each bundle.
type Envelope struct {
	// WorkID correlates the bundle with the run that produced it.
	WorkID string `json:"work_id"`

	// Connector is the identifier of the sending connector.
	Connector string `json:"connector,omitempty"`

	// SentAt is the Unix timestamp in milliseconds when the bundle was sent.
	SentAt int64 `json:"sent_at"`

	// Bundle is the serialized bundle.
	Bundle json.RawMessage `json:"bundle"`
}

// Notice announces a pushed envelope without carrying the bundle itself.
type Notice struct {
	WorkID   string `json:"work_id"`
	BundleID string `json:"bundle_id"`
	Objects  int    `json:"objects"`
}

func newEnvelope(b stix.Bundle, workID, connector string, now time.Time) ([]byte, error) {
	if workID == "" {
		return nil, ErrMissingWorkID
	}
	data, err := b.Marshal()
	if err != nil {
		return nil, err
	}
	env := Envelope{
		WorkID:    workID,
		Connector: connector,
		SentAt:    now.UnixMilli(),
		Bundle:    data,
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return out, nil
}

// DecodeEnvelope parses an envelope and the bundle it carries.
func DecodeEnvelope(data []byte) (Envelope, stix.Bundle, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, stix.Bundle{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.WorkID == "" {
		return Envelope{}, stix.Bundle{}, fmt.Errorf("%w: missing work_id", ErrInvalidEnvelope)
	}
	b, err := stix.DecodeBundle(env.Bundle)
	if err != nil {
		return Envelope{}, stix.Bundle{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env, b, nil
}
