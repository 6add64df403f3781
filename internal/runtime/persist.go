package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

// persist embeds the current progress into the form and writes it to the local
// cache and then to the backend. Failures are reported, not returned: the local
// copy is the recovery log reconciled on the next Load. Only a rejection of the
// caller's credentials is returned.
func (c *Controller) persist(ctx context.Context, op string) error {
	c.saveLocal(ctx, op)
	err := c.saveRemote(ctx, op)
	c.saved = c.form.Clone()
	return err
}

func (c *Controller) saveLocal(ctx context.Context, op string) {
	state := c.store.State()
	c.form.State = domain.ToFormState(state)

	started := time.Now()
	err := c.cache.SaveState(ctx, c.sessionID, state)
	if err == nil {
		err = c.cache.SaveForm(ctx, c.sessionID, c.form)
	}
	c.emitPersist(ctx, domain.TargetLocal, op, started, err)

	if err != nil {
		c.logger.Error("failed to write local cache", "session_id", c.sessionID, "op", op, "error", err)
		c.notifier.Notify(ctx, ports.Notification{
			Level:   ports.LevelError,
			Title:   "Could not save progress locally",
			Message: err.Error(),
			Err:     err,
		})
	}
}

func (c *Controller) saveRemote(ctx context.Context, op string) error {
	if c.backend == nil {
		return nil
	}

	started := time.Now()
	_, err := c.backend.SaveRegistration(ctx, c.form.Clone())
	c.emitPersist(ctx, domain.TargetRemote, op, started, err)

	if err != nil {
		return c.remoteFailed(ctx, "save", err)
	}
	return nil
}

// remoteFailed notifies a backend failure and lets the caller carry on, except for
// authentication failures which are returned.
func (c *Controller) remoteFailed(ctx context.Context, op string, err error) error {
	if errors.Is(err, ports.ErrUnauthorized) {
		c.logger.Warn("registration backend rejected the credentials", "session_id", c.sessionID, "op", op, "error", err)
		return fmt.Errorf("registration %s: %w", op, err)
	}

	c.logger.Warn("registration backend call failed", "session_id", c.sessionID, "op", op, "error", err)
	c.notifier.Notify(ctx, ports.Notification{
		Level:   ports.LevelError,
		Title:   "Could not reach the registration service",
		Message: err.Error(),
		Err:     err,
	})
	return nil
}

// Load hydrates the controller. A form found in the local cache is the recovery log
// of an interrupted session: it is posted to the backend and, once accepted, the
// cache is cleared and re-seeded with the server copy. Without a cached form the
// backend copy, and the progress embedded in it, initialize the wizard.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, err := c.cache.LoadForm(ctx, c.sessionID)
	switch {
	case err == nil:
		return c.reconcile(ctx, cached)
	case errors.Is(err, domain.ErrStateNotFound):
		return c.hydrate(ctx)
	default:
		return fmt.Errorf("could not read local cache: %w", err)
	}
}

func (c *Controller) reconcile(ctx context.Context, cached *registration.RegistrationForm) error {
	state, err := c.cache.LoadState(ctx, c.sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrStateNotFound) {
			return fmt.Errorf("could not read local cache: %w", err)
		}
		state = domain.FromFormState(cached.State)
	}

	c.form = cached
	c.store.Dispatch(domain.SetInitialValue{State: state})
	c.saved = cached.Clone()

	if c.backend == nil {
		c.logger.Debug("session restored from local cache", "session_id", c.sessionID)
		return nil
	}

	c.form.State = domain.ToFormState(c.store.State())
	started := time.Now()
	remote, err := c.backend.SaveRegistration(ctx, c.form.Clone())
	c.emitPersist(ctx, domain.TargetRemote, "reconcile", started, err)
	if err != nil {
		// Keep the cache so the next load tries again.
		return c.remoteFailed(ctx, "reconcile", err)
	}

	if err := c.cache.Clear(ctx, c.sessionID); err != nil {
		c.logger.Warn("failed to clear local cache", "session_id", c.sessionID, "error", err)
	}
	if remote != nil {
		c.form = remote.Normalize()
	}
	c.saved = c.form.Clone()
	c.saveLocal(ctx, "reconcile")

	c.logger.Info("local edits reconciled with backend", "session_id", c.sessionID)
	return nil
}

func (c *Controller) hydrate(ctx context.Context) error {
	if c.backend == nil {
		state, err := c.cache.LoadState(ctx, c.sessionID)
		if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
			return fmt.Errorf("could not read local cache: %w", err)
		}
		if err == nil {
			c.store.Dispatch(domain.SetInitialValue{State: state})
		}
		return nil
	}

	started := time.Now()
	remote, err := c.backend.LoadRegistration(ctx, domain.SectionAll)
	c.emitPersist(ctx, domain.TargetRemote, "load", started, err)
	if err != nil {
		return c.remoteFailed(ctx, "load", err)
	}
	if remote == nil {
		return nil
	}

	c.form = remote.Normalize()
	c.saved = c.form.Clone()
	c.store.Dispatch(domain.SetInitialValue{State: domain.FromFormState(remote.State)})
	c.saveLocal(ctx, "load")
	return nil
}

// ClearStepperState resets the form and the wizard to their initial values, clears
// the local cache and resets the document on the backend.
func (c *Controller) ClearStepperState(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clear(ctx)
}

func (c *Controller) clear(ctx context.Context) error {
	c.form = registration.NewForm()
	c.saved = c.form.Clone()
	c.lastErrors = nil
	c.store.Dispatch(domain.ClearStepper{})

	started := time.Now()
	err := c.cache.Clear(ctx, c.sessionID)
	c.emitPersist(ctx, domain.TargetLocal, "clear", started, err)
	if err != nil {
		return fmt.Errorf("could not clear local cache: %w", err)
	}

	if c.backend != nil {
		started = time.Now()
		_, err = c.backend.ResetRegistration(ctx, domain.SectionAll)
		c.emitPersist(ctx, domain.TargetRemote, "reset", started, err)
		if err != nil {
			if err := c.remoteFailed(ctx, "reset", err); err != nil {
				return err
			}
		}
	}

	c.emitStepEnter(ctx, "")
	return nil
}

// ResetSection restores one section of the form to its defaults. The step editing
// the section goes back to progress. "all" behaves like ClearStepperState.
func (c *Controller) ResetSection(ctx context.Context, section domain.Section) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if section.IsAll() {
		return c.clear(ctx)
	}
	if err := c.form.Reset(section); err != nil {
		return err
	}
	if err := c.saved.Reset(section); err != nil {
		return err
	}

	step := section.Step()
	c.store.Dispatch(domain.SetStepStatus{Step: step, Status: domain.StatusProgress})
	c.store.Dispatch(domain.SetStepMissingFields{Step: step})
	c.store.Dispatch(domain.SetIsDirty{Step: step, IsDirty: false})
	if step == c.store.State().CurrentStep {
		c.lastErrors = nil
	}
	c.saveLocal(ctx, "reset")

	if c.backend != nil {
		started := time.Now()
		_, err := c.backend.ResetRegistration(ctx, section)
		c.emitPersist(ctx, domain.TargetRemote, "reset", started, err)
		if err != nil {
			return c.remoteFailed(ctx, "reset", err)
		}
	}
	return nil
}

// SubmitStatus fetches the network submission status from the backend and records
// it in the wizard state.
func (c *Controller) SubmitStatus(ctx context.Context) (*ports.RegistrationStatus, error) {
	if c.backend == nil {
		return nil, ErrNoBackend
	}

	status, err := c.backend.RegistrationStatus(ctx)
	if err != nil {
		if authErr := c.remoteFailed(ctx, "status", err); authErr != nil {
			return nil, authErr
		}
		return nil, err
	}

	c.store.Dispatch(domain.SetTestnetSubmitted{Submitted: status.TestnetSubmitted != ""})
	c.store.Dispatch(domain.SetMainnetSubmitted{Submitted: status.MainnetSubmitted != ""})
	return status, nil
}
