package octi

import (
	"errors"
	"fmt"
	"strings"
)

// Construction error codes.
const (
	// CodeFieldValidation reports a field that violates its own constraint
	// (missing, empty, out of range, not in its vocabulary).
	CodeFieldValidation = "FIELD_VALIDATION"

	// CodeCrossFieldValidation reports a rule spanning several fields, such
	// as "either name or hashes".
	CodeCrossFieldValidation = "CROSS_FIELD_VALIDATION"

	// CodeTranslation reports a wire-format rejection of otherwise valid fields.
	CodeTranslation = "TRANSLATION"

	// CodeUnbuiltReference reports a reference to an entity that was never
	// produced by a constructor.
	CodeUnbuiltReference = "UNBUILT_REFERENCE"
)

// Sentinel errors matched through ConstructionError with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrTranslation      = errors.New("translation failed")
	ErrUnbuiltReference = errors.New("referenced entity was never built")
)

// ConstructionError is returned by every entity constructor. No entity
// exists when it is returned.
type ConstructionError struct {
	// Kind is the wire type of the entity being built.
	Kind string

	// Code is one of the Code* constants.
	Code string

	// Fields names the offending fields, if any.
	Fields []string

	// Message is a human-readable explanation.
	Message string

	// Cause is the underlying error, typically a *stix.FormatError for
	// translation failures.
	Cause error
}

// Error formats the error as "kind [CODE] fields: message: cause".
func (e *ConstructionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", e.Kind, e.Code)
	if len(e.Fields) > 0 {
		b.WriteString(" " + strings.Join(e.Fields, ","))
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the sentinel matching the code and the cause.
func (e *ConstructionError) Unwrap() []error {
	var errs []error
	switch e.Code {
	case CodeFieldValidation, CodeCrossFieldValidation:
		errs = append(errs, ErrValidation)
	case CodeTranslation:
		errs = append(errs, ErrTranslation)
	case CodeUnbuiltReference:
		errs = append(errs, ErrUnbuiltReference)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ErrorCode returns the construction code carried by err, or "" when err is
// not a construction failure.
func ErrorCode(err error) string {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
