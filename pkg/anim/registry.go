package anim

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// Factory builds a fresh animation instance. The rng may be nil, in which
// case the animation seeds its own source.
type Factory func(rng *rand.Rand) Animation

// Registry maps animation names to factories so transports and tooling can
// construct animations from plain strings.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry preloaded with the stock animations.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("breathing", func(rng *rand.Rand) Animation {
		return NewBreathingWith(BreathingConfig{SupportsIdle: true, Rand: rng})
	})
	r.Register("look-around", func(rng *rand.Rand) Animation {
		return NewLookAround(rng)
	})
	return r
}

// Register adds a factory under name, replacing any previous entry.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// New constructs a fresh instance of the named animation.
func (r *Registry) New(name string, rng *rand.Rand) (Animation, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnimation, name)
	}
	return f(rng), nil
}

// Names returns all registered animation names, sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
