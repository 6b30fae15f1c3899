//go:build js_eval

package rts

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	jsSettings
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each rule runs as
// the body of an immediately invoked function in a fresh runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{jsSettings: newJSSettings(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, rule string) (any, error) {
	compiled, err := e.compile(rule)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(rule string) (CompiledRule, error) {
	return e.compile(rule)
}

func (e *jsEvaluator) compile(rule string) (*jsRule, error) {
	if rule == "" {
		return nil, engineError(jsEngine, fmt.Errorf("expression must not be empty"))
	}
	if program, ok := e.cached(rule); ok {
		if program, ok := program.(*goja.Program); ok {
			return &jsRule{evaluator: e, source: rule, program: program}, nil
		}
	}
	program, err := goja.Compile(rule, "(function(){ return ("+rule+"); })()", true)
	if err != nil {
		return nil, ruleError(jsEngine, rule, "", err)
	}
	e.store(rule, program)
	return &jsRule{evaluator: e, source: rule, program: program}, nil
}

// runtime builds a goja VM holding the rule context and registry helpers.
func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	for key, value := range ctx.withDefaultMaps().binding() {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	if e.functions == nil {
		return vm, nil
	}
	if err := vm.Set("call", func(name string, args ...any) (any, error) {
		return e.functions.Call(name, args...)
	}); err != nil {
		return nil, err
	}
	for _, name := range e.helperNames() {
		name := name
		if err := vm.Set(name, func(args ...any) (any, error) {
			return e.functions.Call(name, args...)
		}); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator *jsEvaluator
	source    string
	program   *goja.Program
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	vm, err := r.evaluator.runtime(ctx)
	if err != nil {
		return nil, engineError(jsEngine, err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, ruleError(jsEngine, r.source, ctx.targetLabel(), err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
