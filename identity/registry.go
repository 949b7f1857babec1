package identity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Sentinel errors for registry operations.
var (
	// ErrKindNotRegistered indicates that the requested entity kind is not in the registry.
	ErrKindNotRegistered = errors.New("entity kind not registered")

	// ErrMissingIdentifyingProperties indicates that one or more required identifying
	// properties are absent from the property map.
	//
	// Example:
	//	missing, err := registry.ValidateProperties("indicator", properties)
	//	if errors.Is(err, identity.ErrMissingIdentifyingProperties) {
	//	    return fmt.Errorf("missing %v: %w", missing, err)
	//	}
	ErrMissingIdentifyingProperties = errors.New("missing identifying properties")
)

// Normalization describes how a property value is folded before it takes part
// in an identifier.
type Normalization int

const (
	// AsIs keeps the value unchanged. Time values are rendered with TimestampLayout.
	AsIs Normalization = iota
	// Trimmed strips surrounding whitespace from strings.
	Trimmed
	// Folded lowercases and trims strings.
	Folded
)

// Property is one identifying property of an entity kind.
type Property struct {
	Name      string
	Normalize Normalization
	// Optional properties contribute only when present.
	Optional bool
}

// Wire type names of the kinds registered by default.
const (
	KindIdentity          = "identity"
	KindIndicator         = "indicator"
	KindReport            = "report"
	KindLocation          = "location"
	KindIntrusionSet      = "intrusion-set"
	KindMalware           = "malware"
	KindVulnerability     = "vulnerability"
	KindRelationship      = "relationship"
	KindMarkingDefinition = "marking-definition"
)

// KindRegistry maps each entity kind to the properties forming its natural key.
type KindRegistry interface {
	// IdentifyingProperties returns the identifying properties of kind.
	// Returns ErrKindNotRegistered if the kind is unknown.
	IdentifyingProperties(kind string) ([]Property, error)

	// IsRegistered reports whether kind exists in the registry.
	IsRegistered(kind string) bool

	// ValidateProperties checks that every required identifying property is
	// present and returns the names of those that are not.
	ValidateProperties(kind string, properties map[string]any) ([]string, error)

	// AllKinds returns the sorted list of registered kinds.
	AllKinds() []string
}

// DefaultKindRegistry is the in-memory KindRegistry holding the natural keys
// the consuming platform uses. It is safe for concurrent use.
type DefaultKindRegistry struct {
	mu       sync.RWMutex
	registry map[string][]Property
}

// NewDefaultKindRegistry creates a registry populated with the platform's natural keys:
//
//   - identity: [name (folded), identity_class]
//   - indicator: [pattern (trimmed)]
//   - report: [name (folded), published]
//   - location: [name (folded), x_opencti_location_type, latitude?, longitude?]
//   - intrusion-set, malware, vulnerability: [name (folded)]
//   - relationship: [relationship_type, source_ref, target_ref, start_time?, stop_time?]
//   - marking-definition: [definition_type, definition]
func NewDefaultKindRegistry() *DefaultKindRegistry {
	r := &DefaultKindRegistry{
		registry: make(map[string][]Property),
	}

	r.register(KindIdentity,
		Property{Name: "name", Normalize: Folded},
		Property{Name: "identity_class"},
	)
	r.register(KindIndicator, Property{Name: "pattern", Normalize: Trimmed})
	r.register(KindReport,
		Property{Name: "name", Normalize: Folded},
		Property{Name: "published"},
	)
	r.register(KindLocation,
		Property{Name: "name", Normalize: Folded},
		Property{Name: "x_opencti_location_type"},
		Property{Name: "latitude", Optional: true},
		Property{Name: "longitude", Optional: true},
	)
	r.register(KindIntrusionSet, Property{Name: "name", Normalize: Folded})
	r.register(KindMalware, Property{Name: "name", Normalize: Folded})
	r.register(KindVulnerability, Property{Name: "name", Normalize: Folded})
	r.register(KindRelationship,
		Property{Name: "relationship_type"},
		Property{Name: "source_ref"},
		Property{Name: "target_ref"},
		Property{Name: "start_time", Optional: true},
		Property{Name: "stop_time", Optional: true},
	)
	r.register(KindMarkingDefinition,
		Property{Name: "definition_type"},
		Property{Name: "definition"},
	)

	return r
}

func (r *DefaultKindRegistry) register(kind string, properties ...Property) {
	r.registry[kind] = properties
}

// IdentifyingProperties returns a copy of the identifying properties of kind.
func (r *DefaultKindRegistry) IdentifyingProperties(kind string) ([]Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	props, ok := r.registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotRegistered, kind)
	}

	result := make([]Property, len(props))
	copy(result, props)
	return result, nil
}

// IsRegistered reports whether kind exists in the registry.
func (r *DefaultKindRegistry) IsRegistered(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.registry[kind]
	return ok
}

// ValidateProperties checks that all required identifying properties are present.
func (r *DefaultKindRegistry) ValidateProperties(kind string, properties map[string]any) ([]string, error) {
	identifying, err := r.IdentifyingProperties(kind)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, prop := range identifying {
		if prop.Optional {
			continue
		}
		if val, ok := properties[prop.Name]; !ok || isAbsent(val) {
			missing = append(missing, prop.Name)
		}
	}

	if len(missing) > 0 {
		return missing, fmt.Errorf("%w for kind '%s': %v", ErrMissingIdentifyingProperties, kind, missing)
	}

	return nil, nil
}

// AllKinds returns a sorted list of all registered kinds.
func (r *DefaultKindRegistry) AllKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.registry))
	for kind := range r.registry {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)
	return kinds
}

func isAbsent(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case time.Time:
		return v.IsZero()
	case *time.Time:
		return v == nil || v.IsZero()
	case *float64:
		return v == nil
	case map[string]any:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	}
	return false
}

var (
	globalRegistry     KindRegistry
	globalRegistryOnce sync.Once
	globalRegistryMu   sync.RWMutex
)

// Registry returns the process-wide KindRegistry, lazily initialized with
// NewDefaultKindRegistry.
func Registry() KindRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistryMu.Lock()
		defer globalRegistryMu.Unlock()
		if globalRegistry == nil {
			globalRegistry = NewDefaultKindRegistry()
		}
	})

	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return globalRegistry
}

// SetRegistry replaces the process-wide KindRegistry. Intended for tests.
func SetRegistry(registry KindRegistry) {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	globalRegistry = registry
}
