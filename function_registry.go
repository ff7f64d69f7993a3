package opts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from rules, e.g. getenv.
type Function func(args ...any) (any, error)

// FunctionRegistry holds rule helpers. Lookups are case-insensitive; rules
// see each helper under its registered name and its lower-case form.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]registeredFunction{}}
}

// Register adds fn under name. Names are unique and "call" is reserved for
// the generic dispatcher.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("opts: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("opts: function %q is nil", name)
	case key == "call":
		return fmt.Errorf("opts: function name %q is reserved", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]registeredFunction{}
	}
	if _, taken := r.functions[key]; taken {
		return fmt.Errorf("opts: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: strings.TrimSpace(name), fn: fn}
	return nil
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	return r.lookup(name) != nil
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("opts: function registry is nil")
	}
	fn := r.lookup(name)
	if fn == nil {
		return nil, fmt.Errorf("opts: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the registered names in lower case, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Clone copies the registry so later registrations do not leak into
// evaluators built from it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]registeredFunction, len(r.functions))}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

func (r *FunctionRegistry) lookup(name string) Function {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions[strings.ToLower(name)].fn
}

// callables returns the rule bindings for every helper plus call, which
// dispatches on its first argument.
func (r *FunctionRegistry) callables() map[string]func(...any) (any, error) {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	bound := make(map[string]func(...any) (any, error), 2*len(r.functions)+1)
	for key, entry := range r.functions {
		fn := entry.fn
		bound[key] = func(args ...any) (any, error) { return fn(args...) }
		bound[entry.name] = bound[key]
	}
	r.mu.RUnlock()
	bound["call"] = func(args ...any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("opts: call needs a function name")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("opts: call name must be a string, got %T", args[0])
		}
		return r.Call(name, args[1:]...)
	}
	return bound
}
