package rts

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// NewProgramCache returns an in-memory ProgramCache safe for concurrent use.
func NewProgramCache() ProgramCache {
	return &memoryProgramCache{}
}

type memoryProgramCache struct {
	programs sync.Map
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
