package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

type entry struct {
	state *domain.StepperState
	form  *registration.RegistrationForm
}

// Cache implements ports.StepperCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]*entry
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*entry),
	}
}

func (c *Cache) entry(sessionID string) *entry {
	e, ok := c.data[sessionID]
	if !ok {
		e = &entry{}
		c.data[sessionID] = e
	}
	return e
}

// SaveState stores a deep copy of the state.
func (c *Cache) SaveState(ctx context.Context, sessionID string, state domain.StepperState) error {
	snapshot := state.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(sessionID).state = &snapshot
	return nil
}

// LoadState returns a copy so the caller can't mutate the cache through it.
func (c *Cache) LoadState(ctx context.Context, sessionID string) (domain.StepperState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[sessionID]
	if !ok || e.state == nil {
		return domain.StepperState{}, domain.ErrStateNotFound
	}
	return e.state.Snapshot(), nil
}

// SaveForm stores a deep copy of the form.
func (c *Cache) SaveForm(ctx context.Context, sessionID string, form *registration.RegistrationForm) error {
	cp := form.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(sessionID).form = cp
	return nil
}

// LoadForm returns a copy of the cached form.
func (c *Cache) LoadForm(ctx context.Context, sessionID string) (*registration.RegistrationForm, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[sessionID]
	if !ok || e.form == nil {
		return nil, domain.ErrStateNotFound
	}
	return e.form.Clone().Normalize(), nil
}

// Clear removes the session.
func (c *Cache) Clear(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, sessionID)
	return nil
}

// List returns cached sessions in lexical order.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sessions := make([]string, 0, len(c.data))
	for id := range c.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
