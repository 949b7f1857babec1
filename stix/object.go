package stix

import (
	"time"
)

// SpecVersion is the STIX version stamped on every encoded object.
const SpecVersion = "2.1"

// TimestampLayout renders timestamps in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way the encoder does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Properties is the input of Encode: property name to Go value.
//
// Accepted values are strings, booleans, integers, floats, time.Time,
// []byte (base64 encoded), string slices, string maps, nested Properties
// and slices of them. Nil values, empty strings, empty slices and empty maps
// are treated as absent and omitted. Use Null to emit an explicit null.
type Properties map[string]any

type nullValue struct{}

func (nullValue) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Null is a property value that is serialized as an explicit JSON null.
var Null any = nullValue{}

// IsNull reports whether v is the Null marker.
func IsNull(v any) bool {
	_, ok := v.(nullValue)
	return ok
}

// Object is an encoded wire object. Values are restricted to string, bool,
// int64, float64, []string, []any, map[string]any and Null.
type Object map[string]any

// ID returns the object identifier.
func (o Object) ID() string {
	s, _ := o["id"].(string)
	return s
}

// Type returns the object type.
func (o Object) Type() string {
	s, _ := o["type"].(string)
	return s
}

// Get returns the value of a property.
func (o Object) Get(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// String returns a string property, or "" when absent or not a string.
func (o Object) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Strings returns a string list property.
func (o Object) Strings(key string) []string {
	switch v := o[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone returns a deep copy of the object.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	return Object(cloneMap(o))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	}
	return v
}
