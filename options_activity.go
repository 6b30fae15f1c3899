package rts

import "github.com/goliatone/go-rts/pkg/activity"

// WithActivityHooks attaches activity hooks notified on target resolution and
// extension registration. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the emitter configuration. Without it, events
// are emitted whenever hooks are attached, on the default channel.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *config) {
		copied := activityCfg
		cfg.activityConfig = &copied
	}
}

func (cfg config) emitter() *activity.Emitter {
	activityCfg := activity.Config{Enabled: true}
	if cfg.activityConfig != nil {
		activityCfg = *cfg.activityConfig
	}
	return activity.NewEmitter(cfg.activityHooks, activityCfg)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
