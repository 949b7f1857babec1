package stix

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/cti-sdk/identity"
)

var customProperty = regexp.MustCompile(`^x_[a-z0-9_]{1,248}$`)

var objectType = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

// Encoder turns property sets into wire objects. It is safe for concurrent use.
type Encoder struct {
	mu    sync.RWMutex
	specs map[string]TypeSpec
}

// NewEncoder creates an encoder knowing the built-in object types plus any
// extra specs, which replace built-ins of the same type.
func NewEncoder(extra ...TypeSpec) *Encoder {
	e := &Encoder{specs: make(map[string]TypeSpec)}
	for _, s := range builtinSpecs() {
		e.specs[s.Type] = s
	}
	for _, s := range extra {
		e.specs[s.Type] = s
	}
	return e
}

var (
	defaultEncoder     *Encoder
	defaultEncoderOnce sync.Once
)

// DefaultEncoder returns the shared encoder for the built-in object types.
func DefaultEncoder() *Encoder {
	defaultEncoderOnce.Do(func() {
		defaultEncoder = NewEncoder()
	})
	return defaultEncoder
}

// Spec returns the grammar of objType.
func (e *Encoder) Spec(objType string) (TypeSpec, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.specs[objType]
	return s, ok
}

// Types returns the sorted list of known object types.
func (e *Encoder) Types() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	types := make([]string, 0, len(e.specs))
	for t := range e.specs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Encode builds a wire object of objType from props.
//
// Domain objects, relationships and markings must carry an "id" property
// prefixed with their type. Cyber observables without an id receive one
// derived from their identifying content.
//
// The returned error is always a *FormatError.
func (e *Encoder) Encode(objType string, props Properties) (Object, error) {
	spec, ok := e.Spec(objType)
	if !ok {
		return nil, formatErr(objType, "", ErrUnknownType, "no grammar registered")
	}

	obj := Object{
		"type":         objType,
		"spec_version": SpecVersion,
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "type" || key == "spec_version" {
			return nil, formatErr(objType, key, ErrInvalidValue, "property is set by the encoder")
		}
		value, keep, err := normalize(props[key])
		if err != nil {
			return nil, formatErr(objType, key, ErrInvalidValue, "%v", err)
		}
		if !keep {
			continue
		}
		switch {
		case spec.unsupported(key):
			return nil, formatErr(objType, key, ErrUnsupportedProperty, "not implemented on the platform")
		case strings.HasPrefix(key, "x_"):
			if !customProperty.MatchString(key) {
				return nil, formatErr(objType, key, ErrUnknownProperty, "invalid custom property name")
			}
		case !spec.allows(key):
			return nil, formatErr(objType, key, ErrUnknownProperty, "not part of the %s grammar", objType)
		}
		if err := checkReferences(objType, key, value); err != nil {
			return nil, err
		}
		obj[key] = value
	}

	for _, req := range spec.Required {
		if !present(obj, req) {
			return nil, formatErr(objType, req, ErrMissingProperty, "required by %s", objType)
		}
	}

	if id := obj.ID(); id != "" {
		if err := checkIdentifier(objType, id); err != nil {
			return nil, formatErr(objType, "id", ErrInvalidReference, "%v", err)
		}
	} else {
		if spec.Category != CategorySCO {
			return nil, formatErr(objType, "id", ErrMissingProperty, "%s objects need an explicit identifier", spec.Category)
		}
		id, err := contentID(spec, obj)
		if err != nil {
			return nil, err
		}
		obj["id"] = id
	}

	for _, c := range spec.Constraints {
		if err := c(obj); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

// contentID derives a cyber observable identifier from its identifying
// properties, falling back to every standard property when none is set.
func contentID(spec TypeSpec, obj Object) (string, error) {
	data := make(map[string]any)
	for _, p := range spec.IDContributing {
		v, ok := obj[p]
		if !ok || IsNull(v) {
			continue
		}
		if p == "hashes" {
			if m, ok := v.(map[string]any); ok {
				v = chooseOneHash(m)
			}
		}
		data[p] = v
	}
	if len(data) == 0 {
		for k, v := range obj {
			switch {
			case k == "type", k == "id", k == "spec_version", k == "object_marking_refs":
			case strings.HasPrefix(k, "x_"), IsNull(v):
			default:
				data[k] = v
			}
		}
	}
	if len(data) == 0 {
		return "", formatErr(spec.Type, "id", ErrMissingProperty, "no property to derive an identifier from")
	}
	id, err := identity.Derive(spec.Type, data)
	if err != nil {
		return "", formatErr(spec.Type, "id", ErrInvalidValue, "%v", err)
	}
	return id, nil
}

var hashPreference = []string{"MD5", "SHA-1", "SHA-256", "SHA-512"}

func chooseOneHash(hashes map[string]any) map[string]any {
	for _, algo := range hashPreference {
		if v, ok := hashes[algo]; ok {
			return map[string]any{algo: v}
		}
	}
	keys := make([]string, 0, len(hashes))
	for k := range hashes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return hashes
	}
	return map[string]any{keys[0]: hashes[keys[0]]}
}

// checkIdentifier validates "<type>--<uuid>" and, when objType is set, the prefix.
func checkIdentifier(objType, id string) error {
	prefix, raw, ok := strings.Cut(id, "--")
	if !ok || !objectType.MatchString(prefix) {
		return fmt.Errorf("malformed identifier %q", id)
	}
	if objType != "" && prefix != objType {
		return fmt.Errorf("identifier %q does not match type %s", id, objType)
	}
	if _, err := uuid.Parse(raw); err != nil {
		return fmt.Errorf("identifier %q: %w", id, err)
	}
	return nil
}

// ValidIdentifier reports whether id has the "<type>--<uuid>" form.
func ValidIdentifier(id string) bool {
	return checkIdentifier("", id) == nil
}

func checkReferences(objType, key string, value any) error {
	switch {
	case strings.HasSuffix(key, "_ref"):
		s, ok := value.(string)
		if !ok || !ValidIdentifier(s) {
			return formatErr(objType, key, ErrInvalidReference, "%v is not an identifier", value)
		}
	case strings.HasSuffix(key, "_refs"):
		refs, ok := value.([]string)
		if !ok {
			return formatErr(objType, key, ErrInvalidReference, "expected a list of identifiers")
		}
		for _, ref := range refs {
			if !ValidIdentifier(ref) {
				return formatErr(objType, key, ErrInvalidReference, "%q is not an identifier", ref)
			}
		}
	}
	return nil
}

// normalize converts a Go value into its wire representation. keep is false
// for absent values.
func normalize(v any) (value any, keep bool, err error) {
	switch t := v.(type) {
	case nil:
		return nil, false, nil
	case nullValue:
		return t, true, nil
	case string:
		return t, t != "", nil
	case bool:
		return t, true, nil
	case int:
		return int64(t), true, nil
	case int32:
		return int64(t), true, nil
	case int64:
		return t, true, nil
	case uint16:
		return int64(t), true, nil
	case uint32:
		return int64(t), true, nil
	case float32:
		return float64(t), true, nil
	case float64:
		return t, true, nil
	case time.Time:
		if t.IsZero() {
			return nil, false, nil
		}
		return Timestamp(t), true, nil
	case []byte:
		if len(t) == 0 {
			return nil, false, nil
		}
		return base64.StdEncoding.EncodeToString(t), true, nil
	case []string:
		if len(t) == 0 {
			return nil, false, nil
		}
		out := make([]string, len(t))
		copy(out, t)
		return out, true, nil
	case map[string]string:
		if len(t) == 0 {
			return nil, false, nil
		}
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true, nil
	case Properties:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case Object:
		return normalizeMap(t)
	case []Properties:
		items := make([]any, 0, len(t))
		for _, p := range t {
			m, ok, err := normalizeMap(p)
			if err != nil {
				return nil, false, err
			}
			if ok {
				items = append(items, m)
			}
		}
		return items, len(items) > 0, nil
	case []any:
		items := make([]any, 0, len(t))
		for _, item := range t {
			n, ok, err := normalize(item)
			if err != nil {
				return nil, false, err
			}
			if ok {
				items = append(items, n)
			}
		}
		return items, len(items) > 0, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false, nil
		}
		return normalize(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.String {
		return normalize(rv.String())
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.String {
		out := make([]string, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).String()
		}
		return normalize(out)
	}
	return nil, false, fmt.Errorf("unsupported value type %T", v)
}

func normalizeMap[M ~map[string]any](m M) (any, bool, error) {
	if len(m) == 0 {
		return nil, false, nil
	}
	out := make(map[string]any, len(m))
	for k, item := range m {
		n, ok, err := normalize(item)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", k, err)
		}
		if ok {
			out[k] = n
		}
	}
	return out, len(out) > 0, nil
}
