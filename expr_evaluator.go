package rts

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const exprEngine = "expr"

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled rules through cache under "expr:" keys.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the registry's helpers to rules, both by
// name and through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.functions = registry.Clone()
		}
	}
}

type exprEvaluator struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// NewExprEvaluator constructs the default rule engine, backed by
// github.com/expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	return e.compile(expression)
}

func (e *exprEvaluator) compile(expression string) (*exprRule, error) {
	if expression == "" {
		return nil, engineError(exprEngine, fmt.Errorf("expression must not be empty"))
	}
	key := exprEngine + ":" + expression
	if e.cache != nil {
		if program, ok := e.cache.Get(key); ok {
			if program, ok := program.(*exprvm.Program); ok {
				return &exprRule{evaluator: e, program: program, source: expression}, nil
			}
		}
	}

	// Unknown variables evaluate to nil so rules written for richer
	// capability sets still compile against older descriptors.
	compileOpts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.functions != nil {
		for _, name := range e.functions.Names() {
			compileOpts = append(compileOpts, exprlang.Function(name, e.helper(name)))
		}
	}
	program, err := exprlang.Compile(expression, compileOpts...)
	if err != nil {
		return nil, ruleError(exprEngine, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return &exprRule{evaluator: e, program: program, source: expression}, nil
}

func (e *exprEvaluator) helper(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return e.functions.Call(name, args...)
	}
}

// variables is the rule context binding plus the call helper.
func (e *exprEvaluator) variables(ctx RuleContext) map[string]any {
	vars := ctx.withDefaultMaps().binding()
	if e.functions != nil {
		vars["call"] = func(name string, args ...any) (any, error) {
			return e.functions.Call(name, args...)
		}
	}
	return vars
}

type exprRule struct {
	evaluator *exprEvaluator
	program   *exprvm.Program
	source    string
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	result, err := exprlang.Run(r.program, r.evaluator.variables(ctx))
	if err != nil {
		return nil, ruleError(exprEngine, r.source, ctx.targetLabel(), err)
	}
	return result, nil
}
