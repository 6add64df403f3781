package runtime

import (
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/validation"
)

// View is what a front-end needs to render the active step.
type View struct {
	SessionID string                      `json:"session_id"`
	Step      domain.StepKey              `json:"step"`
	Section   domain.Section              `json:"section"`
	State     domain.StepperState         `json:"state"`
	Values    map[string]any              `json:"values"`
	Errors    validation.ValidationErrors `json:"errors,omitempty"`
}

// View returns the values of the active section together with the progress and the
// errors of the last blocked navigation.
func (c *Controller) View() (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.store.State()
	section := state.CurrentStep.Section()

	values, err := c.form.MarshalStep(section)
	if err != nil {
		return nil, err
	}
	delete(values, registration.FieldState)

	return &View{
		SessionID: c.sessionID,
		Step:      state.CurrentStep,
		Section:   section,
		State:     state,
		Values:    values,
		Errors:    append(validation.ValidationErrors(nil), c.lastErrors...),
	}, nil
}
