package bundle

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for bundle assembly.
var (
	// ErrReferenceIntegrity indicates that an object references an
	// identifier the bundle does not contain.
	//
	// Example:
	//	b, err := asm.Build()
	//	if errors.Is(err, bundle.ErrReferenceIntegrity) {
	//	    // add the missing entities or drop the dangling ones
	//	}
	ErrReferenceIntegrity = errors.New("bundle reference integrity violated")

	// ErrUnbuiltEntity indicates that a nil entity, or one that was not
	// produced by its constructor, was added to an assembler.
	ErrUnbuiltEntity = errors.New("entity was not built")

	// ErrInvalidFilter indicates that a filter expression does not compile
	// or does not evaluate to a boolean.
	ErrInvalidFilter = errors.New("invalid bundle filter")
)

// MissingReference is one identifier referenced but not contained.
type MissingReference struct {
	// From is the identifier of the referencing object.
	From string
	// Property is the wire property holding the reference.
	Property string
	// ID is the identifier that could not be resolved.
	ID string
}

// IntegrityError lists every unresolved reference of a bundle.
type IntegrityError struct {
	Missing []MissingReference
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("%s.%s -> %s", m.From, m.Property, m.ID))
	}
	return fmt.Sprintf("%s: %d missing: %s", ErrReferenceIntegrity, len(e.Missing), strings.Join(parts, ", "))
}

// Unwrap returns ErrReferenceIntegrity.
func (e *IntegrityError) Unwrap() error {
	return ErrReferenceIntegrity
}
