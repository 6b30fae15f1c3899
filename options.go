package rts

// WithEvaluator configures the engine used for capability rules.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithProfiles replaces the builder's profile set.
func WithProfiles(profiles ...Profile) Option {
	return func(cfg *config) {
		cfg.profiles = ProfileSet(profiles).clone()
	}
}

// WithStrictProfiles makes ResolveTarget reject descriptors that do not cover
// every profile in the set. This is the default; the option undoes an
// earlier WithLenientProfiles.
func WithStrictProfiles() Option {
	return func(cfg *config) {
		cfg.lenientProfiles = false
	}
}

// WithLenientProfiles lets ResolveTarget return descriptors that cover only
// part of the profile set. SystemFileFor still fails for the missing ones.
func WithLenientProfiles() Option {
	return func(cfg *config) {
		cfg.lenientProfiles = true
	}
}

// WithRuleArgs exposes args to capability rules as the args variable.
func WithRuleArgs(args map[string]any) Option {
	return func(cfg *config) {
		if len(args) == 0 {
			cfg.ruleArgs = nil
			return
		}
		cfg.ruleArgs = make(map[string]any, len(args))
		for key, value := range args {
			cfg.ruleArgs[key] = value
		}
	}
}

// WithSearchPath uses overlay instead of a fresh, empty search path.
func WithSearchPath(overlay *SearchPath) Option {
	return func(cfg *config) {
		cfg.overlay = overlay
	}
}

// WithGenericResolver sets the resolver extensions fall back to.
func WithGenericResolver(resolver ResolverFunc) Option {
	return func(cfg *config) {
		cfg.generic = resolver
	}
}

// WithRegistry is WithGenericResolver for a registry.
func WithRegistry(registry *Registry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.generic = registry.Resolver()
	}
}
