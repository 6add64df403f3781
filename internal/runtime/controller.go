// Package runtime drives the certificate registration wizard: it owns the reducer
// store and the form of one session and coordinates validation, confirmation gates
// and the local and remote persistence of every step change.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/store"
	"github.com/aretw0/stepper/pkg/validation"
)

// Controller is the stepper of one session. Its methods are safe for concurrent
// use; calls are serialized.
type Controller struct {
	mu sync.Mutex

	sessionID string
	store     *store.Store
	form      *registration.RegistrationForm

	// saved is the last copy handed to the persistence layer by a navigation. It
	// is what a discarded edit reverts to.
	saved *registration.RegistrationForm

	// lastErrors holds the failures of the last blocked navigation.
	lastErrors validation.ValidationErrors

	cache     ports.StepperCache
	backend   ports.RegistrationBackend
	confirmer ports.Confirmer
	notifier  ports.Notifier
	hooks     domain.LifecycleHooks
	localizer *validation.Localizer
	logger    *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithCache sets the local recovery cache (default: in-memory).
func WithCache(cache ports.StepperCache) Option {
	return func(c *Controller) {
		c.cache = cache
	}
}

// WithBackend sets the remote owner of the registration document. Without one the
// controller works offline against the cache only.
func WithBackend(backend ports.RegistrationBackend) Option {
	return func(c *Controller) {
		c.backend = backend
	}
}

// WithConfirmer sets the confirmation modal. Without one every gate is answered
// with cancel.
func WithConfirmer(confirmer ports.Confirmer) Option {
	return func(c *Controller) {
		c.confirmer = confirmer
	}
}

// WithNotifier sets where non-fatal errors are reported.
func WithNotifier(notifier ports.Notifier) Option {
	return func(c *Controller) {
		c.notifier = notifier
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLocalizer sets the language of validation messages.
func WithLocalizer(l *validation.Localizer) Option {
	return func(c *Controller) {
		c.localizer = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithState seeds the wizard position, e.g. in tests.
func WithState(state domain.StepperState) Option {
	return func(c *Controller) {
		c.store = store.New(state)
	}
}

// WithForm seeds the registration form.
func WithForm(form *registration.RegistrationForm) Option {
	return func(c *Controller) {
		c.form = form.Clone().Normalize()
	}
}

// New creates the controller of a session holding the initial state and a default
// form. Call Load to hydrate it from the cache or the backend.
func New(sessionID string, opts ...Option) *Controller {
	c := &Controller{
		sessionID: sessionID,
		store:     store.New(),
		form:      registration.NewForm(),
		localizer: validation.DefaultLocalizer,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		c.cache = memory.NewCache()
	}
	if c.notifier == nil {
		c.notifier = ports.NotifyFunc(func(context.Context, ports.Notification) {})
	}
	c.saved = c.form.Clone()
	return c
}

// SessionID returns the session the controller belongs to.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// State returns a snapshot of the wizard progress.
func (c *Controller) State() domain.StepperState {
	return c.store.State()
}

// Subscribe registers a listener for every state change.
func (c *Controller) Subscribe(l store.Listener) func() {
	return c.store.Subscribe(l)
}

// CurrentState returns the form state embedded into persisted documents.
func (c *Controller) CurrentState() *domain.FormState {
	return domain.ToFormState(c.store.State())
}

// Form returns a copy of the form with the current progress embedded.
func (c *Controller) Form() *registration.RegistrationForm {
	c.mu.Lock()
	defer c.mu.Unlock()

	form := c.form.Clone()
	form.State = domain.ToFormState(c.store.State())
	return form
}

// Errors returns the validation failures that blocked the last navigation.
func (c *Controller) Errors() validation.ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(validation.ValidationErrors(nil), c.lastErrors...)
}

// Validate runs the active step's schema without navigating.
func (c *Controller) Validate() (validation.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeness(c.store.State().CurrentStep)
}

func (c *Controller) completeness(step domain.StepKey) (validation.Result, error) {
	result, err := validation.Completeness(step, c.form)
	if err != nil {
		return result, err
	}
	result.Errors = c.localizer.Localize(result.Errors)
	return result, nil
}

func (c *Controller) confirm(ctx context.Context, req ports.ConfirmRequest) (ports.Decision, error) {
	if c.confirmer == nil {
		return ports.DecisionCancel, nil
	}
	return c.confirmer.Confirm(ctx, req)
}

func (c *Controller) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: c.sessionID}
}

func (c *Controller) emitStepEnter(ctx context.Context, direction string) {
	if c.hooks.OnStepEnter == nil {
		return
	}
	state := c.store.State()
	step, _ := state.Current()
	c.hooks.OnStepEnter(ctx, &domain.StepEvent{
		EventBase: c.base(domain.EventStepEnter),
		Step:      state.CurrentStep,
		Status:    step.Status,
		Direction: direction,
	})
}

func (c *Controller) emitStepLeave(ctx context.Context, step domain.StepKey, status domain.StepStatus, direction string) {
	if c.hooks.OnStepLeave == nil {
		return
	}
	c.hooks.OnStepLeave(ctx, &domain.StepEvent{
		EventBase: c.base(domain.EventStepLeave),
		Step:      step,
		Status:    status,
		Direction: direction,
	})
}

func (c *Controller) emitValidationFailed(ctx context.Context, step domain.StepKey, fields []string, forced bool) {
	if c.hooks.OnValidationFailed == nil {
		return
	}
	c.hooks.OnValidationFailed(ctx, &domain.ValidationEvent{
		EventBase: c.base(domain.EventValidationFailed),
		Step:      step,
		Fields:    fields,
		Forced:    forced,
	})
}

func (c *Controller) emitPersist(ctx context.Context, target, op string, started time.Time, err error) {
	if c.hooks.OnPersist == nil {
		return
	}
	c.hooks.OnPersist(ctx, &domain.PersistEvent{
		EventBase: c.base(domain.EventPersist),
		Target:    target,
		Op:        op,
		Duration:  time.Since(started),
		Err:       err,
	})
}
