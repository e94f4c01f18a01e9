package avatar

import (
	"fmt"
	"sort"
	"sync"

	"github.com/avatarworks/go-avatar/pkg/anim"
)

// Manager owns the live avatars of a daemon and the animation registry used
// to build their animations from names.
type Manager struct {
	mu       sync.RWMutex
	avatars  map[string]*Avatar
	registry *anim.Registry
}

// NewManager creates an empty manager with the stock animation registry.
func NewManager() *Manager {
	return &Manager{
		avatars:  make(map[string]*Avatar),
		registry: anim.DefaultRegistry(),
	}
}

// Create builds a new avatar from the scheduler config and registers it.
func (m *Manager) Create(name string, cfg anim.Config) *Avatar {
	av := New(name, anim.NewSchedulerWith(cfg))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.avatars[av.ID] = av
	return av
}

// Get retrieves an avatar by ID.
func (m *Manager) Get(id string) (*Avatar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	av, ok := m.avatars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return av, nil
}

// List returns all avatars ordered by creation time, oldest first.
func (m *Manager) List() []*Avatar {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avatars := make([]*Avatar, 0, len(m.avatars))
	for _, av := range m.avatars {
		avatars = append(avatars, av)
	}
	sort.Slice(avatars, func(i, j int) bool {
		if avatars[i].Created.Equal(avatars[j].Created) {
			return avatars[i].ID < avatars[j].ID
		}
		return avatars[i].Created.Before(avatars[j].Created)
	})
	return avatars
}

// Remove closes an avatar and drops it from the manager.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	av, ok := m.avatars[id]
	if ok {
		delete(m.avatars, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	av.Close()
	return nil
}

// Count returns the number of live avatars.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.avatars)
}

// Registry returns the animation registry shared by this manager.
func (m *Manager) Registry() *anim.Registry {
	return m.registry
}

// SetAnimation replaces an avatar's primary animation with a registered one.
func (m *Manager) SetAnimation(id, name string) error {
	av, err := m.Get(id)
	if err != nil {
		return err
	}
	a, err := m.registry.New(name, nil)
	if err != nil {
		return err
	}
	av.Scheduler().SetAnimation(a)
	return nil
}
