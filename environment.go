package rts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-rts/pkg/activity"
)

// Environment is the mutable registration state shared by the generic builder
// and its extensions: the source search path and the active resolver.
//
// Extensions register while the environment is being set up. The first call
// to ResolveTarget closes registration, after which the environment is read
// only and safe for concurrent use. Resolved descriptors must cover the
// environment's profile set unless WithLenientProfiles is given.
type Environment struct {
	mu         sync.Mutex
	overlay    *SearchPath
	generic    ResolverFunc
	active     ResolverFunc
	profiles   ProfileSet
	strict     bool
	logger     Logger
	emitter    *activity.Emitter
	extensions []string
	closed     bool
}

// Extension bundles what a downstream project contributes: support
// directories searched after the existing ones and the targets it defines.
// Unknown ids fall back to the generic resolver.
type Extension struct {
	Name    string
	Dirs    []string
	Targets *Registry
}

// NewEnvironment constructs an environment. Without WithGenericResolver or
// WithRegistry every id is unknown until an extension is registered.
func NewEnvironment(opts ...Option) *Environment {
	cfg := applyOptions(opts)
	overlay := cfg.overlay
	if overlay == nil {
		overlay = NewSearchPath()
	}
	generic := cfg.generic
	if generic == nil {
		generic = NewRegistry().Resolve
	}
	return &Environment{
		overlay:  overlay,
		generic:  generic,
		active:   generic,
		profiles: cfg.profilesOrDefault(),
		strict:   !cfg.lenientProfiles,
		logger:   cfg.loggerOrNoop(),
		emitter:  cfg.emitter(),
	}
}

// RegisterExtension appends dirs to the search path and, when override is not
// nil, makes it the active resolver. Registering the same directory twice has
// no further effect; the last override registered wins.
func (e *Environment) RegisterExtension(dirs []string, override ResolverFunc) error {
	return e.register(context.Background(), "", dirs, override, nil)
}

// Extend registers ext. Its targets take precedence over the generic ones.
func (e *Environment) Extend(ext Extension) error {
	var override ResolverFunc
	var names []string
	if ext.Targets != nil {
		override = ext.Targets.WithFallback(e.Generic())
		names = ext.Targets.Names()
	}
	return e.register(context.Background(), ext.Name, ext.Dirs, override, names)
}

func (e *Environment) register(ctx context.Context, name string, dirs []string, override ResolverFunc, targets []string) error {
	start := time.Now()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		err := fmt.Errorf("%w: extension %q registered after first resolution", ErrRegistrationClosed, name)
		e.logger.Log(LogEvent{Op: OpExtend, Subject: name, Duration: time.Since(start), Err: err})
		return err
	}
	added := e.overlay.Append(dirs...)
	if override != nil {
		e.active = override
	}
	if name != "" {
		e.extensions = append(e.extensions, name)
	}
	e.mu.Unlock()

	e.logger.Log(LogEvent{Op: OpExtend, Subject: name, Duration: time.Since(start)})
	e.notify(ctx, activity.BuildExtensionRegisteredEvent(activity.ExtensionEventInput{
		Name:     name,
		Dirs:     added,
		Targets:  targets,
		Override: override != nil,
	}))
	return nil
}

// ResolveTarget resolves id with the active resolver.
func (e *Environment) ResolveTarget(id string) (*TargetDescriptor, error) {
	return e.ResolveTargetContext(context.Background(), id)
}

// ResolveTargetContext is ResolveTarget with a context handed to activity
// hooks.
func (e *Environment) ResolveTargetContext(ctx context.Context, id string) (*TargetDescriptor, error) {
	start := time.Now()
	e.mu.Lock()
	e.closed = true
	resolve := e.active
	e.mu.Unlock()

	desc, err := resolve(id)
	desc, err = e.check(id, desc, err)
	elapsed := time.Since(start)
	e.logger.Log(LogEvent{Op: OpResolve, Target: id, Duration: elapsed, Err: err})

	input := activity.TargetEventInput{
		Target:   id,
		Profiles: e.profiles.Strings(),
		Duration: elapsed,
		Err:      err,
	}
	if err != nil {
		e.notify(ctx, activity.BuildTargetResolveFailedEvent(input))
		return nil, err
	}
	input.Lineage = desc.Lineage()
	e.notify(ctx, activity.BuildTargetResolvedEvent(input))
	return desc, nil
}

// check holds every resolver, generic or override, to the requested id.
// Unless the environment is lenient the descriptor must also cover the
// profile set.
func (e *Environment) check(id string, desc *TargetDescriptor, err error) (*TargetDescriptor, error) {
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, invalidDefinition(id, "resolver returned no descriptor")
	}
	if desc.Name() != id {
		return nil, invalidDefinition(id, "resolver returned descriptor named %q", desc.Name())
	}
	if e.strict {
		if err := desc.Validate(e.profiles); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

// LookupSource resolves a source name through the search path.
func (e *Environment) LookupSource(name string) (string, error) {
	start := time.Now()
	path, err := e.overlay.Resolve(name)
	e.logger.Log(LogEvent{Op: OpLookup, Subject: name, Duration: time.Since(start), Err: err})
	return path, err
}

// Generic returns the builder's own resolver, which extensions fall back to.
func (e *Environment) Generic() ResolverFunc {
	return e.generic
}

// Overlay returns the search path.
func (e *Environment) Overlay() *SearchPath {
	return e.overlay
}

// Profiles returns the builder's profile set.
func (e *Environment) Profiles() ProfileSet {
	return e.profiles.clone()
}

// Extensions returns the names of the registered extensions in order.
func (e *Environment) Extensions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.extensions...)
}

// Closed reports whether registration has been closed by a resolution.
func (e *Environment) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Environment) notify(ctx context.Context, event activity.Event) {
	if !e.emitter.Enabled() {
		return
	}
	if err := e.emitter.Emit(ctx, event); err != nil {
		e.logger.Log(LogEvent{Op: OpNotify, Target: event.ObjectID, Subject: event.Verb, Err: err})
	}
}

var (
	defaultMu  sync.RWMutex
	defaultEnv *Environment
)

// DefaultEnvironment returns the process wide environment, creating an empty
// one on first use.
func DefaultEnvironment() *Environment {
	defaultMu.RLock()
	env := defaultEnv
	defaultMu.RUnlock()
	if env != nil {
		return env
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEnv == nil {
		defaultEnv = NewEnvironment()
	}
	return defaultEnv
}

// SetDefaultEnvironment replaces the process wide environment and returns the
// previous one. Passing nil resets it.
func SetDefaultEnvironment(env *Environment) *Environment {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	previous := defaultEnv
	defaultEnv = env
	return previous
}

// RegisterExtension registers with the default environment.
func RegisterExtension(dirs []string, override ResolverFunc) error {
	return DefaultEnvironment().RegisterExtension(dirs, override)
}

// ResolveTarget resolves id with the default environment.
func ResolveTarget(id string) (*TargetDescriptor, error) {
	return DefaultEnvironment().ResolveTarget(id)
}

// IsRegistrationClosed reports whether err comes from a late registration.
func IsRegistrationClosed(err error) bool {
	return errors.Is(err, ErrRegistrationClosed)
}
