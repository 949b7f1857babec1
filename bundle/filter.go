package bundle

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/zero-day-ai/cti-sdk/stix"
)

// Filter is a compiled CEL predicate over a wire object. Objects for which
// it evaluates to false are dropped from the bundle.
type Filter struct {
	expr    string
	program cel.Program
}

var filterEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("object", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		panic(fmt.Sprintf("bundle: failed to create CEL environment: %v", err))
	}
	return env
}()

// NewFilter compiles expr. The expression must evaluate to a boolean.
func NewFilter(expr string) (*Filter, error) {
	ast, iss := filterEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q evaluates to %s, not bool", ErrInvalidFilter, expr, ast.OutputType())
	}
	prg, err := filterEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilter, expr, err)
	}
	return &Filter{expr: expr, program: prg}, nil
}

// MustFilter is like NewFilter but panics on error. It is meant for
// expressions known at compile time.
func MustFilter(expr string) *Filter {
	f, err := NewFilter(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// Keep evaluates the filter against obj. An object lacking a property the
// expression reads is kept, so authors and markings pass score predicates.
func (f *Filter) Keep(obj stix.Object) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{"object": celObject(obj)})
	if err != nil {
		if isMissingKey(err) {
			return true, nil
		}
		return false, fmt.Errorf("filter %q on %s: %w", f.expr, obj.ID(), err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T for %s", ErrInvalidFilter, f.expr, out.Value(), obj.ID())
	}
	return keep, nil
}

// isMissingKey reports whether err is the CEL runtime error for selecting
// an absent map key.
func isMissingKey(err error) bool {
	return strings.Contains(err.Error(), "no such key")
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// celObject converts a wire object into values the CEL runtime adapts natively.
func celObject(obj stix.Object) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = celValue(v)
	}
	return out
}

func celValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = celValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = celValue(item)
		}
		return out
	}
	if stix.IsNull(v) {
		return nil
	}
	return v
}
