package opts

import "sync"

// ProgramCache stores compiled rule programs. Keys are prefixed with the
// engine name so one cache can serve several engines.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache on the Options wrapper.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *optionsConfig) {
		cfg.programCache = cache
	}
}

// NewProgramCache returns an unbounded, goroutine-safe ProgramCache.
func NewProgramCache() ProgramCache {
	return &mapProgramCache{programs: map[string]any{}}
}

type mapProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func (c *mapProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *mapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	c.programs[key] = value
	c.mu.Unlock()
}

// cachedProgram returns the program stored under key when it has type P.
func cachedProgram[P any](cache ProgramCache, key string) (P, bool) {
	var zero P
	if cache == nil {
		return zero, false
	}
	value, ok := cache.Get(key)
	if !ok {
		return zero, false
	}
	program, ok := value.(P)
	return program, ok
}

func storeProgram(cache ProgramCache, key string, program any) {
	if cache != nil {
		cache.Set(key, program)
	}
}
