// Package store holds the wizard progress behind a serialized reducer. Every change
// goes through Dispatch and subscribers see the resulting snapshot.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// Listener receives the state after each dispatch.
type Listener func(domain.StepperState)

// Store is safe for concurrent use. Actions are applied one at a time.
type Store struct {
	mu        sync.Mutex
	state     domain.StepperState
	listeners map[int]Listener
	nextID    int
}

// New creates a store holding the initial state, or the given one.
func New(initial ...domain.StepperState) *Store {
	state := domain.NewStepperState()
	if len(initial) > 0 {
		state = initial[0].Snapshot()
	}
	return &Store{
		state:     state,
		listeners: make(map[int]Listener),
	}
}

// Load creates a store hydrated from the session's cached state, falling back to the
// initial state when nothing is cached.
func Load(ctx context.Context, cache ports.StepperCache, sessionID string) (*Store, error) {
	state, err := cache.LoadState(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			return New(), nil
		}
		return nil, err
	}
	return New(state), nil
}

// Dispatch applies the action and returns the new snapshot.
func (s *Store) Dispatch(action domain.Action) domain.StepperState {
	s.mu.Lock()
	s.state = domain.Reduce(s.state, action)
	snapshot := s.state.Snapshot()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.Snapshot())
	}
	return snapshot
}

// State returns a copy of the current state.
func (s *Store) State() domain.StepperState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
