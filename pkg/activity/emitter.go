package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without one.
const DefaultChannel = "rts"

// Config controls activity emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter fans out events to hooks while applying defaults.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	kept := cloneHooks(hooks)
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards event to all hooks, applying the default channel when missing.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}

func cloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	kept := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
