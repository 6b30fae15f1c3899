package rts

import "fmt"

// Function represents a helper callable from capability rules.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom rule functions keyed by name.
type FunctionRegistry struct {
	functions *table[Function]
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: newTable[Function]("function")}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("rts: function %q is nil", name)
	}
	if r.functions == nil {
		r.functions = newTable[Function]("function")
	}
	return r.functions.register(name, fn)
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil || r.functions == nil {
		return nil
	}
	return &FunctionRegistry{functions: r.functions.clone()}
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil || r.functions == nil {
		return nil, fmt.Errorf("rts: function registry is nil")
	}
	fn, ok := r.functions.lookup(name)
	if !ok || fn == nil {
		return nil, fmt.Errorf("rts: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil || r.functions == nil {
		return nil
	}
	return r.functions.names()
}

// WithFunctionRegistry exposes the functions in registry to capability rules.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for capability rules.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
