// Package calc implements the calculator registry and result cache from
// spec.md §4.7: named, deterministic functions of an input mapping, with a
// bounded per-session LRU cache keyed on (name, canonicalized inputs).
package calc

import (
	"fmt"
	"sync"

	"github.com/weftengine/rules/internal/types"
)

// Func is a calculator's implementation: a pure function from a named
// input mapping to either a result FactValue or a *types.CalculatorError.
// Calculators may not read working memory directly (spec.md §4.7).
type Func func(inputs map[string]types.FactValue) (types.FactValue, error)

// Registry is the name -> Func table shared by every session compiled
// against it. Registration happens once at startup; lookups are
// read-mostly, so a RWMutex is enough.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns a Registry pre-populated with the built-in
// calculators spec.md §4.7 requires.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces a named calculator.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the calculator registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Invoke runs the named calculator, wrapping an unknown name as a
// CalculatorError rather than a generic error, so callers can treat every
// calculator failure uniformly (spec.md §4.7 "structured error fact").
func (r *Registry) Invoke(name string, inputs map[string]types.FactValue) (types.FactValue, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return types.FactValue{}, &types.CalculatorError{
			Code:    types.ErrCodeMissingRequiredField,
			Message: fmt.Sprintf("unknown calculator %q", name),
		}
	}
	return fn(inputs)
}

func requireFloat(inputs map[string]types.FactValue, name string) (float64, error) {
	v, ok := inputs[name]
	if !ok {
		return 0, &types.CalculatorError{Code: types.ErrCodeMissingRequiredField, Field: name, Message: "missing required input " + name}
	}
	f, _, ok := v.Numeric()
	if !ok {
		return 0, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: name, Message: name + " is not numeric"}
	}
	return f, nil
}

func optionalFloat(inputs map[string]types.FactValue, name string, def float64) (float64, error) {
	v, ok := inputs[name]
	if !ok {
		return def, nil
	}
	f, _, ok := v.Numeric()
	if !ok {
		return 0, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: name, Message: name + " is not numeric"}
	}
	return f, nil
}

func optionalString(inputs map[string]types.FactValue, name, def string) string {
	v, ok := inputs[name]
	if !ok {
		return def
	}
	s, ok := v.AsString()
	if !ok {
		return def
	}
	return s
}
