package stepper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/internal/runtime"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/validation"
)

// Stepper is the wizard of a single session.
type Stepper = runtime.Controller

// NavigationError is returned when a step cannot be left because it failed validation.
type NavigationError = runtime.NavigationError

// View is the render model of the active step.
type View = runtime.View

// ErrNoBackend is returned by operations that need a backend when none is configured.
var ErrNoBackend = runtime.ErrNoBackend

// Engine is the high-level entry point of the library. It holds the adapters shared
// by every session and opens a Stepper per session.
type Engine struct {
	cache     ports.StepperCache
	backend   ports.RegistrationBackend
	confirmer ports.Confirmer
	notifier  ports.Notifier
	hooks     domain.LifecycleHooks
	localizer *validation.Localizer
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCache sets the local recovery cache. Defaults to an in-memory cache.
func WithCache(cache ports.StepperCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithBackend sets the remote registration backend.
func WithBackend(backend ports.RegistrationBackend) Option {
	return func(e *Engine) {
		e.backend = backend
	}
}

// WithConfirmer sets the confirmation modal used by navigation gates.
func WithConfirmer(confirmer ports.Confirmer) Option {
	return func(e *Engine) {
		e.confirmer = confirmer
	}
}

// WithNotifier sets where non-fatal errors are reported.
func WithNotifier(notifier ports.Notifier) Option {
	return func(e *Engine) {
		e.notifier = notifier
	}
}

// WithLifecycleHooks registers observability hooks. Calling it more than once
// chains the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLocale sets the language of validation messages (BCP 47, e.g. "de-CH").
func WithLocale(langs ...string) Option {
	return func(e *Engine) {
		e.localizer = validation.NewLocalizer(langs...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		localizer: validation.DefaultLocalizer,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.cache == nil {
		eng.cache = memory.NewCache()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	return eng
}

// Open creates the Stepper of a session and loads it from the cache or the backend.
func (e *Engine) Open(ctx context.Context, sessionID string, opts ...runtime.Option) (*Stepper, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	base := []runtime.Option{
		runtime.WithCache(e.cache),
		runtime.WithBackend(e.backend),
		runtime.WithConfirmer(e.confirmer),
		runtime.WithNotifier(e.notifier),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLocalizer(e.localizer),
		runtime.WithLogger(e.logger.With("session_id", sessionID)),
	}
	s := runtime.New(sessionID, append(base, opts...)...)

	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Cache returns the local recovery cache shared by the sessions.
func (e *Engine) Cache() ports.StepperCache {
	return e.cache
}

// Backend returns the remote registration backend, if any.
func (e *Engine) Backend() ports.RegistrationBackend {
	return e.backend
}
