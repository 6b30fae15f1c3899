package rts

const jsEngine = "js"

// JSEvaluatorOption configures the goja rule engine. Options are accepted
// without the js_eval build tag so callers compile either way.
type JSEvaluatorOption func(*jsSettings)

type jsSettings struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// JSWithProgramCache shares compiled scripts through cache under "js:" keys.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.cache = cache
	}
}

// JSWithFunctionRegistry makes the registry's helpers callable from rules,
// by name and through call(name, args...).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) {
		if registry != nil {
			s.functions = registry.Clone()
		}
	}
}

func newJSSettings(opts []JSEvaluatorOption) jsSettings {
	var s jsSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// cached returns the program stored for rule, if a cache is configured.
func (s jsSettings) cached(rule string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(jsEngine + ":" + rule)
}

func (s jsSettings) store(rule string, program any) {
	if s.cache != nil {
		s.cache.Set(jsEngine+":"+rule, program)
	}
}

// helperNames lists the registry functions exposed to scripts.
func (s jsSettings) helperNames() []string {
	if s.functions == nil {
		return nil
	}
	return s.functions.Names()
}
