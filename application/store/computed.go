package store

import (
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// ComputeFunc derives a value from the current state. It runs lazily
// on Get and its result is memoized until any state change.
type ComputeFunc func(state Reader) (interface{}, error)

// Computed is the handle returned by Store.Computed
type Computed struct {
	key      string
	registry *computedRegistry
}

// computedRegistry memoizes derived values. Entries never expire on
// their own; every store mutation flushes the whole cache, matching
// "invalidated on every state change".
type computedRegistry struct {
	mu    sync.Mutex
	cache *gocache.Cache
	fns   map[string]ComputeFunc
	state Reader
}

func newComputedRegistry(state Reader) *computedRegistry {
	return &computedRegistry{
		cache: gocache.New(gocache.NoExpiration, 0),
		fns:   make(map[string]ComputeFunc),
		state: state,
	}
}

func (r *computedRegistry) register(key string, fn ComputeFunc) (*Computed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fns[key]; exists {
		return nil, fmt.Errorf("computed value %q already registered", key)
	}
	r.fns[key] = fn
	return &Computed{key: key, registry: r}, nil
}

func (r *computedRegistry) get(key string) (interface{}, error) {
	r.mu.Lock()
	fn, ok := r.fns[key]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("computed value %q disposed", key)
	}

	if cached, found := r.cache.Get(key); found {
		return cached, nil
	}

	value, err := fn(r.state)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, value, gocache.NoExpiration)
	return value, nil
}

func (r *computedRegistry) dispose(key string) {
	r.mu.Lock()
	delete(r.fns, key)
	r.mu.Unlock()
	r.cache.Delete(key)
}

// invalidate drops every memoized value; called on any state change
func (r *computedRegistry) invalidate() {
	r.cache.Flush()
}

// Get returns the memoized value, recomputing it if the state changed
// since the last call
func (c *Computed) Get() (interface{}, error) {
	return c.registry.get(c.key)
}

// Dispose unregisters the computed value and drops its cache entry
func (c *Computed) Dispose() {
	c.registry.dispose(c.key)
}
