package rts

import "github.com/goliatone/go-rts/pkg/activity"

// RuleContext carries the inputs a capability rule is evaluated against.
// Args holds caller supplied values (WithRuleArgs); Metadata describes the
// layer whose rule is running ("layer", "lineage").
type RuleContext struct {
	Target       string
	Capabilities Capabilities
	Profiles     ProfileSet
	Args         map[string]any
	Metadata     map[string]any
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) targetLabel() string {
	if ctx.Target != "" {
		return ctx.Target
	}
	return "unknown"
}

// binding is the variable environment shared by every evaluator engine.
func (ctx RuleContext) binding() map[string]any {
	return map[string]any{
		"target":   ctx.Target,
		"cap":      ctx.Capabilities.Binding(),
		"profiles": stringsToAny(ctx.Profiles.Strings()),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// Option configures descriptor construction and environments.
type Option func(*config)

type config struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          Logger
	activityHooks   activity.Hooks
	activityConfig  *activity.Config
	profiles        ProfileSet
	lenientProfiles bool
	ruleArgs        map[string]any
	overlay         *SearchPath
	generic         ResolverFunc
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg config) loggerOrNoop() Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopLogger{}
}

func (cfg config) profilesOrDefault() ProfileSet {
	if len(cfg.profiles) > 0 {
		return cfg.profiles.clone()
	}
	return DefaultProfiles()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
