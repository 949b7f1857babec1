package stix

import (
	"errors"
	"fmt"
)

// Sentinel errors for encoding failures, matched with errors.Is through FormatError.
var (
	ErrUnknownType         = errors.New("unknown object type")
	ErrUnknownProperty     = errors.New("unknown property")
	ErrUnsupportedProperty = errors.New("property not supported by the platform")
	ErrMissingProperty     = errors.New("missing required property")
	ErrInvalidValue        = errors.New("invalid property value")
	ErrInvalidReference    = errors.New("invalid object reference")
	ErrConstraint          = errors.New("object constraint violated")
)

// FormatError reports an object the encoder refused to produce.
type FormatError struct {
	// Type is the wire object type being encoded.
	Type string
	// Property is the offending property, empty for object-level failures.
	Property string
	// Detail is a human-readable explanation.
	Detail string
	// Err is one of the sentinel errors of this package.
	Err error
}

func (e *FormatError) Error() string {
	msg := e.Type
	if e.Property != "" {
		msg += "." + e.Property
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErr(objType, property string, err error, format string, args ...any) *FormatError {
	return &FormatError{
		Type:     objType,
		Property: property,
		Detail:   fmt.Sprintf(format, args...),
		Err:      err,
	}
}
