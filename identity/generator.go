package identity

import (
	"fmt"
	"strings"
	"time"
)

// Generator creates deterministic identifiers for entities.
type Generator interface {
	// Generate returns "<kind>--<uuid>" derived from the identifying
	// properties of kind found in properties. Non-identifying entries are
	// ignored, so callers may pass a superset.
	//
	// Returns an error if the kind is not registered or a required
	// identifying property is missing.
	Generate(kind string, properties map[string]any) (string, error)
}

// DeterministicGenerator implements Generator with UUIDv5 over canonical JSON.
//
// Algorithm:
//  1. Look up the identifying properties of the kind
//  2. Validate that every required one is present
//  3. Normalize each present value (fold, trim, render timestamps)
//  4. Encode the resulting object as canonical JSON (sorted keys)
//  5. UUIDv5 it under Namespace and prefix with the kind
type DeterministicGenerator struct {
	registry KindRegistry
}

// NewGenerator creates a DeterministicGenerator backed by registry.
//
// Example:
//
//	gen := identity.NewGenerator(identity.NewDefaultKindRegistry())
func NewGenerator(registry KindRegistry) *DeterministicGenerator {
	return &DeterministicGenerator{
		registry: registry,
	}
}

// Generate creates a deterministic identifier from kind and properties.
func (g *DeterministicGenerator) Generate(kind string, properties map[string]any) (string, error) {
	identifying, err := g.registry.IdentifyingProperties(kind)
	if err != nil {
		return "", fmt.Errorf("failed to get identifying properties for kind %q: %w", kind, err)
	}

	if missing, err := g.registry.ValidateProperties(kind, properties); err != nil {
		return "", fmt.Errorf("validation failed for kind %q: %w (missing: %v)", kind, err, missing)
	}

	data := make(map[string]any, len(identifying))
	for _, prop := range identifying {
		val, ok := properties[prop.Name]
		if !ok || isAbsent(val) {
			continue
		}
		normalized, err := normalizeValue(prop.Normalize, val)
		if err != nil {
			return "", fmt.Errorf("failed to normalize property %q of kind %q: %w", prop.Name, kind, err)
		}
		data[prop.Name] = normalized
	}

	return Derive(kind, data)
}

func normalizeValue(mode Normalization, val any) (any, error) {
	switch v := val.(type) {
	case string:
		switch mode {
		case Folded:
			return strings.ToLower(strings.TrimSpace(v)), nil
		case Trimmed:
			return strings.TrimSpace(v), nil
		}
		return v, nil
	case time.Time:
		return v.UTC().Format(TimestampLayout), nil
	case *time.Time:
		return v.UTC().Format(TimestampLayout), nil
	case *float64:
		return *v, nil
	case fmt.Stringer:
		return normalizeValue(mode, v.String())
	}
	return val, nil
}
