package octi

import (
	"crypto/sha256"
	"encoding/hex"
	"reflect"
	"strings"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

// Entity is a built, immutable threat-intelligence entity. The set of
// implementations is closed to this package.
type Entity interface {
	// ID returns the stable wire identifier.
	ID() string

	// Kind returns the wire object type.
	Kind() string

	// WireObject returns a copy of the translated wire object.
	WireObject() stix.Object

	// Fingerprint hashes the full canonical content of the entity.
	Fingerprint() string

	// References lists the identifiers the wire object points to.
	References() []Reference

	sealed()
}

// Reference is one identifier carried by a wire object.
type Reference struct {
	// Property is the wire property holding the identifier.
	Property string
	// ID is the referenced identifier.
	ID string
	// Mandatory references must resolve inside the same bundle.
	Mandatory bool
}

// Prunable is an entity whose optional references can be removed without
// changing its identifier.
type Prunable interface {
	Entity

	// Prune rebuilds the entity without the references for which drop
	// returns true. ok is false when no reference would be left.
	Prune(drop func(id string) bool) (pruned Entity, ok bool, err error)
}

// Author is an entity that can be cited as the creator of a fact.
type Author interface {
	Entity
	isAuthor()
}

// DomainObject is a higher-level intelligence concept.
type DomainObject interface {
	Entity
	isDomainObject()
}

// Observable is a technical artifact observed on a system or network.
type Observable interface {
	Entity
	isObservable()
}

// Indicatable is an observable able to derive a detection indicator from itself.
type Indicatable interface {
	Observable
	ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error)
}

type base struct {
	id          string
	kind        string
	wire        stix.Object
	fingerprint string
	refs        []Reference
}

func (b base) ID() string { return b.id }

func (b base) Kind() string { return b.kind }

func (b base) WireObject() stix.Object { return b.wire.Clone() }

func (b base) Fingerprint() string { return b.fingerprint }

func (b base) References() []Reference {
	out := make([]Reference, len(b.refs))
	copy(out, b.refs)
	return out
}

func (base) sealed() {}

// Equal reports whether a and b are the same kind and carry identical content.
func Equal(a, b Entity) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	return a.Kind() == b.Kind() && a.Fingerprint() != "" && a.Fingerprint() == b.Fingerprint()
}

// Built reports whether e was produced by a successful constructor.
func Built(e Entity) bool {
	return !isNil(e) && e.ID() != ""
}

func isNil(e Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// translator produces the encoder input of an entity.
type translator func() (stix.Properties, error)

// build runs translation once validation has passed and seals the result.
// mandatory lists the reference properties that must resolve in a bundle.
func build(kind string, v *validator, translate translator, mandatory ...string) (base, error) {
	if v.err != nil {
		return base{}, v.err
	}

	props, err := translate()
	if err != nil {
		return base{}, &ConstructionError{Kind: kind, Code: CodeTranslation, Message: "failed to translate", Cause: err}
	}

	obj, err := stix.DefaultEncoder().Encode(kind, props)
	if err != nil {
		return base{}, &ConstructionError{Kind: kind, Code: CodeTranslation, Message: "wire encoder rejected the object", Cause: err}
	}

	fp, err := fingerprint(obj)
	if err != nil {
		return base{}, &ConstructionError{Kind: kind, Code: CodeTranslation, Message: "failed to fingerprint", Cause: err}
	}

	return base{
		id:          obj.ID(),
		kind:        kind,
		wire:        obj,
		fingerprint: fp,
		refs:        collectReferences(obj, mandatory),
	}, nil
}

func fingerprint(obj stix.Object) (string, error) {
	canonical, err := identity.Canonicalize(obj)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func collectReferences(obj stix.Object, mandatory []string) []Reference {
	var refs []Reference
	isMandatory := func(p string) bool {
		for _, m := range mandatory {
			if m == p {
				return true
			}
		}
		return false
	}
	for _, key := range sortedKeys(obj) {
		switch {
		case strings.HasSuffix(key, "_ref"):
			refs = append(refs, Reference{Property: key, ID: obj.String(key), Mandatory: isMandatory(key)})
		case strings.HasSuffix(key, "_refs"):
			for _, id := range obj.Strings(key) {
				refs = append(refs, Reference{Property: key, ID: id, Mandatory: isMandatory(key)})
			}
		}
	}
	return refs
}

// generateID derives a platform identifier through the shared kind registry.
func generateID(kind string, props map[string]any) (string, error) {
	return identity.NewGenerator(identity.Registry()).Generate(kind, props)
}
