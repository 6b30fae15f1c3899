package rts

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are exposed with one and two dynamic arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, engineError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, ctx.withDefaultMaps(), expression)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, engineError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *celEvaluator) run(program celgo.Program, ctx RuleContext, expression string) (any, error) {
	out, _, err := program.Eval(ctx.binding())
	if err != nil {
		return nil, ruleError("cel", expression, ctx.targetLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get("cel:" + expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, engineError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, ruleError("cel", expression, "", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, ruleError("cel", expression, "", err)
	}

	if e.cache != nil {
		e.cache.Set("cel:"+expression, prg)
	}
	return prg, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	dynMap := celgo.MapType(celgo.StringType, celgo.DynType)
	opts := []celgo.EnvOption{
		celgo.Variable("target", celgo.StringType),
		celgo.Variable("cap", dynMap),
		celgo.Variable("profiles", celgo.ListType(celgo.DynType)),
		celgo.Variable("args", dynMap),
		celgo.Variable("metadata", dynMap),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			fn := name
			opts = append(opts, celgo.Function(fn,
				celgo.Overload(fn+"_dyn",
					[]*celgo.Type{celgo.DynType}, celgo.DynType,
					celgo.UnaryBinding(func(arg ref.Val) ref.Val {
						return e.call(fn, arg)
					})),
				celgo.Overload(fn+"_dyn_dyn",
					[]*celgo.Type{celgo.DynType, celgo.DynType}, celgo.DynType,
					celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
						return e.call(fn, lhs, rhs)
					})),
			))
		}
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) call(name string, values ...ref.Val) ref.Val {
	args := make([]any, 0, len(values))
	for _, val := range values {
		args = append(args, val.Value())
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, engineError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(r.program, ctx.withDefaultMaps(), r.expression)
}
