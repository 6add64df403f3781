package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

const (
	directionNext     = "next"
	directionPrevious = "previous"
	directionJump     = "jump"
)

// NextStep merges the payload into the form and validates the active step. When
// validation fails the Confirmer decides: continue advances anyway, anything else
// leaves the wizard where it is and returns a *NavigationError. On success the step
// status is recorded, the form is persisted and the wizard advances.
func (c *Controller) NextStep(ctx context.Context, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.merge(payload); err != nil {
		return err
	}

	step := c.store.State().CurrentStep
	target := min(step+1, domain.LastStep)

	result, err := c.completeness(step)
	if err != nil {
		return err
	}

	if !result.Valid() {
		fields := result.Errors.Fields()
		decision, err := c.confirm(ctx, ports.ConfirmRequest{
			Kind:   ports.ConfirmIncomplete,
			Step:   step,
			Target: target,
			Fields: fields,
		})
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}

		forced := decision == ports.DecisionContinue
		c.emitValidationFailed(ctx, step, fields, forced)
		if !forced {
			c.lastErrors = result.Errors
			c.logger.Debug("navigation blocked", "session_id", c.sessionID, "step", step, "fields", fields)
			return &NavigationError{From: step, To: target, Errors: result.Errors}
		}
	}
	c.lastErrors = nil

	status := result.Status()
	c.store.Dispatch(domain.SetStepStatus{Step: step, Status: status})
	c.store.Dispatch(domain.SetStepMissingFields{Step: step, Fields: result.Missing})
	c.emitStepLeave(ctx, step, status, directionNext)

	state := c.store.Dispatch(domain.IncrementStep{})
	if state.CurrentStep == domain.LastStep {
		c.store.Dispatch(domain.SetHasReachSubmitStep{HasReachSubmitStep: true})
	}

	err = c.persist(ctx, directionNext)
	c.emitStepEnter(ctx, directionNext)
	return err
}

// PreviousStep merges the payload, records the status of the active step and goes
// back one step. It never blocks on validation.
func (c *Controller) PreviousStep(ctx context.Context, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.merge(payload); err != nil {
		return err
	}

	step := c.store.State().CurrentStep
	result, err := c.completeness(step)
	if err != nil {
		return err
	}
	c.lastErrors = nil

	status := result.Status()
	c.store.Dispatch(domain.SetStepStatus{Step: step, Status: status})
	c.store.Dispatch(domain.SetStepMissingFields{Step: step, Fields: result.Missing})
	c.emitStepLeave(ctx, step, status, directionPrevious)

	c.store.Dispatch(domain.DecrementStep{})
	c.store.Dispatch(domain.SetHasReachSubmitStep{HasReachSubmitStep: false})

	err = c.persist(ctx, directionPrevious)
	c.emitStepEnter(ctx, directionPrevious)
	return err
}

// JumpToStep moves directly to the target. Unsaved edits on the active step are
// saved or discarded as the Confirmer decides; a cancel returns
// domain.ErrNavigationDeclined and leaves the wizard unchanged.
func (c *Controller) JumpToStep(ctx context.Context, target domain.StepKey) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidStep, int(target))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.store.State()
	step := state.CurrentStep
	if target == step {
		return nil
	}

	status := domain.StepStatus("")
	if record, ok := state.Current(); ok {
		status = record.Status
	}

	if state.IsDirty(step) {
		decision, err := c.confirm(ctx, ports.ConfirmRequest{
			Kind:   ports.ConfirmUnsaved,
			Step:   step,
			Target: target,
		})
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}

		switch decision {
		case ports.DecisionSave:
			result, err := c.completeness(step)
			if err != nil {
				return err
			}
			status = result.Status()
			c.store.Dispatch(domain.SetStepStatus{Step: step, Status: status})
			c.store.Dispatch(domain.SetStepMissingFields{Step: step, Fields: result.Missing})
			c.store.Dispatch(domain.SetIsDirty{Step: step, IsDirty: false})
			if err := c.persist(ctx, directionJump); err != nil {
				return err
			}
		case ports.DecisionDiscard:
			if err := c.form.Update(c.saved, step.Section()); err != nil {
				return err
			}
			c.store.Dispatch(domain.SetIsDirty{Step: step, IsDirty: false})
			c.logger.Debug("unsaved edits discarded", "session_id", c.sessionID, "step", step)
		default:
			return domain.ErrNavigationDeclined
		}
	}

	c.lastErrors = nil
	c.emitStepLeave(ctx, step, status, directionJump)

	c.store.Dispatch(domain.SetCurrentStep{Step: target})
	c.store.Dispatch(domain.AddStep{Step: target})
	c.store.Dispatch(domain.SetHasReachSubmitStep{HasReachSubmitStep: false})

	c.saveLocal(ctx, directionJump)
	c.emitStepEnter(ctx, directionJump)
	return nil
}

// SetValues merges edits into the form and marks the active step dirty. The edits
// are mirrored to the local cache so they survive a restart.
func (c *Controller) SetValues(ctx context.Context, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(payload) == 0 {
		return nil
	}
	if err := c.merge(payload); err != nil {
		return err
	}
	c.markDirty(ctx)
	return nil
}

// SetValue sets a single field addressed by a dotted path such as
// "contacts.technical.email" or "entity.geographic_addresses.0.town_name".
func (c *Controller) SetValue(ctx context.Context, path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.form.SetPath(path, value); err != nil {
		return err
	}
	c.markDirty(ctx)
	return nil
}

func (c *Controller) merge(payload map[string]any) error {
	if len(payload) == 0 {
		return nil
	}
	return c.form.Merge(payload)
}

func (c *Controller) markDirty(ctx context.Context) {
	c.store.Dispatch(domain.SetIsDirty{IsDirty: true})
	c.saveLocal(ctx, "edit")
}
