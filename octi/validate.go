package octi

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// validator records the first failure of a construction. Field checks are
// issued before cross-field checks, so a field failure always wins.
type validator struct {
	kind string
	err  *ConstructionError
}

func newValidator(kind string) *validator {
	return &validator{kind: kind}
}

func (v *validator) field(name string, err error) {
	if v.err != nil || err == nil {
		return
	}
	v.err = &ConstructionError{Kind: v.kind, Code: CodeFieldValidation, Fields: []string{name}, Message: err.Error()}
}

func (v *validator) cross(err error, fields ...string) {
	if v.err != nil || err == nil {
		return
	}
	v.err = &ConstructionError{Kind: v.kind, Code: CodeCrossFieldValidation, Fields: fields, Message: err.Error()}
}

func (v *validator) ref(name string, e Entity) {
	if v.err != nil || isNil(e) {
		return
	}
	if e.ID() == "" {
		v.err = &ConstructionError{
			Kind:    v.kind,
			Code:    CodeUnbuiltReference,
			Fields:  []string{name},
			Message: fmt.Sprintf("%T was not built by its constructor", e),
		}
	}
}

// required rejects a nil or unbuilt reference.
func (v *validator) required(name string, e Entity) {
	if isNil(e) {
		v.field(name, errors.New("is required"))
		return
	}
	v.ref(name, e)
}

func checkRefs[E Entity](v *validator, name string, refs []E) {
	for i, e := range refs {
		if isNil(e) {
			v.field(fmt.Sprintf("%s[%d]", name, i), errors.New("must not be nil"))
			continue
		}
		v.ref(fmt.Sprintf("%s[%d]", name, i), e)
	}
}

type vocabulary interface {
	~string
	IsValid() bool
}

func oneOf[T vocabulary](values ...T) error {
	for _, val := range values {
		if !val.IsValid() {
			return fmt.Errorf("%q is not an accepted value", string(val))
		}
	}
	return nil
}

// optionalOneOf accepts the empty value as absent.
func optionalOneOf[T vocabulary](val T) error {
	if val == "" {
		return nil
	}
	return oneOf(val)
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func nonEmptyItems(items []string) error {
	for i, s := range items {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("item %d must not be empty", i)
		}
	}
	return nil
}

func score(s *int) error {
	if s == nil {
		return nil
	}
	if *s < 0 || *s > 100 {
		return fmt.Errorf("%d is outside 0..100", *s)
	}
	return nil
}

func intRange[N ~int | ~int64](n *N, lo, hi N) error {
	if n == nil {
		return nil
	}
	if *n < lo || *n > hi {
		return fmt.Errorf("%d is outside %d..%d", *n, lo, hi)
	}
	return nil
}

func floatRange(f *float64, lo, hi float64) error {
	if f == nil {
		return nil
	}
	if *f < lo || *f > hi {
		return fmt.Errorf("%v is outside %v..%v", *f, lo, hi)
	}
	return nil
}

func ipv4(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		if prefix, perr := netip.ParsePrefix(s); perr == nil && prefix.Addr().Is4() {
			return nil
		}
		return fmt.Errorf("%q is not an IPv4 address or CIDR", s)
	}
	return nil
}

func ipv6(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() || addr.Is4In6() {
		if prefix, perr := netip.ParsePrefix(s); perr == nil && prefix.Addr().Is6() {
			return nil
		}
		return fmt.Errorf("%q is not an IPv6 address or CIDR", s)
	}
	return nil
}

var macAddress = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

func mac(s string) error {
	if !macAddress.MatchString(s) {
		return fmt.Errorf("%q is not a lowercase colon-delimited MAC address", s)
	}
	return nil
}

func absoluteURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%q is not an absolute URL", s)
	}
	return nil
}

func hashes(h map[HashAlgorithm]string) error {
	for algo, value := range h {
		if !algo.IsValid() {
			return fmt.Errorf("%q is not an accepted hash algorithm", string(algo))
		}
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s value must not be empty", algo)
		}
	}
	return nil
}

func hashMap(h map[HashAlgorithm]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[string(k)] = v
	}
	return out
}

func sortedHashAlgorithms(h map[HashAlgorithm]string) []HashAlgorithm {
	algos := make([]HashAlgorithm, 0, len(h))
	for k := range h {
		algos = append(algos, k)
	}
	sort.Slice(algos, func(i, j int) bool { return algos[i] < algos[j] })
	return algos
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ids[E Entity](entities []E) []string {
	if len(entities) == 0 {
		return nil
	}
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID())
	}
	return out
}

// refID returns the identifier of an optional reference, "" when absent.
func refID(e Entity) string {
	if isNil(e) {
		return ""
	}
	return e.ID()
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func ptr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ptr returns a pointer to v, for optional numeric and boolean fields.
func Ptr[T any](v T) *T {
	return &v
}
