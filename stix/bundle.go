package stix

import (
	"encoding/json"
	"fmt"

	"github.com/zero-day-ai/cti-sdk/identity"
)

// Bundle is the delivery envelope for a set of wire objects.
type Bundle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Objects []Object `json:"objects"`
}

// NewBundle wraps objects in a bundle. The bundle identifier is derived
// from the ordered object identifiers, so the same objects in the same
// order always produce the same bundle.
func NewBundle(objects []Object) (Bundle, error) {
	ids := make([]string, 0, len(objects))
	cloned := make([]Object, 0, len(objects))
	for i, obj := range objects {
		if !ValidIdentifier(obj.ID()) {
			return Bundle{}, formatErr("bundle", "objects", ErrInvalidReference, "object %d has identifier %q", i, obj.ID())
		}
		ids = append(ids, obj.ID())
		cloned = append(cloned, obj.Clone())
	}

	id, err := identity.Derive("bundle", map[string]any{"objects": ids})
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to derive bundle identifier: %w", err)
	}

	return Bundle{
		Type:    "bundle",
		ID:      id,
		Objects: cloned,
	}, nil
}

// Len returns the number of objects in the bundle.
func (b Bundle) Len() int {
	return len(b.Objects)
}

// Find returns the object with the given identifier.
func (b Bundle) Find(id string) (Object, bool) {
	for _, obj := range b.Objects {
		if obj.ID() == id {
			return obj, true
		}
	}
	return nil, false
}

// Marshal encodes the bundle as JSON.
func (b Bundle) Marshal() ([]byte, error) {
	if b.Objects == nil {
		b.Objects = []Object{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bundle %s: %w", b.ID, err)
	}
	return data, nil
}

// DecodeBundle parses a JSON bundle. Numbers decode as float64.
func DecodeBundle(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("failed to decode bundle: %w", err)
	}
	if b.Type != "bundle" {
		return Bundle{}, fmt.Errorf("failed to decode bundle: unexpected type %q", b.Type)
	}
	return b, nil
}
