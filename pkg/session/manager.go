package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// ErrSessionNotFound is returned for ids that were never created or were deleted.
var ErrSessionNotFound = errors.New("session not found")

// Opener builds and loads the stepper of a session.
type Opener func(ctx context.Context, sessionID string) (*stepper.Stepper, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	open Opener

	mu       sync.Mutex                  // Global lock for the maps
	locks    map[string]*lockEntry       // Map of active locks
	sessions map[string]*stepper.Stepper // Steppers opened on this replica

	registry ports.StepperCache      // Sessions created on any replica
	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithRegistry makes the manager refuse sessions the cache has never seen. Create
// records the initial state there so other replicas know the session.
func WithRegistry(cache ports.StepperCache) Option {
	return func(m *Manager) {
		m.registry = cache
	}
}

// WithLockTTL sets how long a distributed lock is held before it expires on its own.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager opening steppers with open.
func NewManager(open Opener, opts ...Option) *Manager {
	m := &Manager{
		open:     open,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*stepper.Stepper),
		lockTTL:  30 * time.Second,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ForEngine creates a manager opening sessions through the engine. The engine's
// cache is the session registry.
func ForEngine(eng *stepper.Engine, opts ...Option) *Manager {
	return NewManager(func(ctx context.Context, sessionID string) (*stepper.Stepper, error) {
		return eng.Open(ctx, sessionID)
	}, append([]Option{WithRegistry(eng.Cache())}, opts...)...)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create opens a session under a new random id.
func (m *Manager) Create(ctx context.Context) (string, error) {
	sessionID := uuid.NewString()
	err := m.withLock(ctx, sessionID, true, func(ctx context.Context, s *stepper.Stepper) error {
		if m.registry == nil {
			return nil
		}
		return m.registry.SaveState(ctx, sessionID, s.State())
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// Delete clears the session's form and progress and forgets its stepper.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context, s *stepper.Stepper) error {
		return s.ClearStepperState(ctx)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// Exists reports whether the session has been opened on this replica.
func (m *Manager) Exists(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// List returns the sessions opened on this replica, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// WithLock executes a function while holding the lock for the session. The stepper
// is opened on first use. With a registry, unknown sessions fail with
// ErrSessionNotFound.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *stepper.Stepper) error) error {
	return m.withLock(ctx, sessionID, false, fn)
}

func (m *Manager) withLock(ctx context.Context, sessionID string, create bool, fn func(context.Context, *stepper.Stepper) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	s, err := m.stepper(ctx, sessionID, create)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}

// stepper must be called while holding the session lock.
func (m *Manager) stepper(ctx context.Context, sessionID string, create bool) (*stepper.Stepper, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()

	// Another replica may have changed the session since we last saw it.
	if ok && m.locker == nil {
		return s, nil
	}

	if !ok && !create {
		if err := m.known(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	s, err := m.open(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()
	return s, nil
}

// known checks the registry for a session this replica has not opened.
func (m *Manager) known(ctx context.Context, sessionID string) error {
	if m.registry == nil {
		return nil
	}
	_, err := m.registry.LoadState(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrStateNotFound):
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	case err != nil:
		return fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}
	return nil
}
