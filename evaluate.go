package rts

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("rts: evaluator not configured")

// EvaluateRule runs a capability rule and requires a boolean result.
func EvaluateRule(evaluator Evaluator, ctx RuleContext, expr string) (bool, error) {
	if evaluator == nil {
		return false, ErrNoEvaluator
	}
	if expr == "" {
		return false, fmt.Errorf("rts: rule expression must not be empty")
	}
	ctx = ctx.withDefaultMaps()
	value, err := evaluator.Evaluate(ctx, expr)
	if err != nil {
		return false, ruleError(evaluatorEngineName(evaluator), expr, ctx.targetLabel(), err)
	}
	matched, ok := value.(bool)
	if !ok {
		return false, ruleError(evaluatorEngineName(evaluator), expr, ctx.targetLabel(),
			fmt.Errorf("rule must evaluate to bool, got %T", value))
	}
	return matched, nil
}

func (cfg config) evaluateRule(ctx RuleContext, expr string) (bool, error) {
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return false, err
	}
	start := time.Now()
	matched, evalErr := EvaluateRule(evaluator, ctx, expr)
	cfg.loggerOrNoop().Log(LogEvent{
		Op:       OpEvaluate,
		Target:   ctx.targetLabel(),
		Subject:  expr,
		Duration: time.Since(start),
		Err:      evalErr,
	})
	return matched, evalErr
}

func (cfg config) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*rts.exprEvaluator":
		return "expr"
	case "*rts.celEvaluator":
		return "cel"
	case "*rts.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
