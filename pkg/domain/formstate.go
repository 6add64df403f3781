package domain

// FormStep is the wire shape of a step record embedded in the registration document.
type FormStep struct {
	Key    int32  `json:"key" mapstructure:"key"`
	Status string `json:"status" mapstructure:"status"`
}

// FormState is the progress of the registration form as stored by the backend. It is
// what the controller embeds in every persisted document so that a session resumed
// on the server reconstructs the wizard position exactly.
type FormState struct {
	Current       int32       `json:"current" mapstructure:"current"`
	ReadyToSubmit bool        `json:"ready_to_submit" mapstructure:"ready_to_submit"`
	Steps         []*FormStep `json:"steps" mapstructure:"steps"`
}

// ToFormState strips client-only details (dirty flags, missing fields, data) from the
// stepper state.
func ToFormState(s StepperState) *FormState {
	out := &FormState{
		Current:       int32(s.CurrentStep),
		ReadyToSubmit: s.HasReachSubmitStep,
		Steps:         make([]*FormStep, 0, len(s.Steps)),
	}
	for _, step := range s.Steps {
		out.Steps = append(out.Steps, &FormStep{Key: int32(step.Key), Status: string(step.Status)})
	}
	return out
}

// FromFormState rebuilds a stepper state from the backend's form state. Steps with an
// unknown status fall back to progress; a nil or empty form state yields the initial state.
func FromFormState(fs *FormState) StepperState {
	if fs == nil || fs.Current == 0 {
		return NewStepperState()
	}

	last := LastStep
	state := StepperState{
		CurrentStep:        StepKey(fs.Current),
		LastStep:           &last,
		HasReachSubmitStep: fs.ReadyToSubmit,
		Steps:              make([]StepRecord, 0, len(fs.Steps)),
	}
	for _, step := range fs.Steps {
		if step == nil {
			continue
		}
		status, err := ParseStepStatus(step.Status)
		if err != nil {
			status = StatusProgress
		}
		state.Steps = append(state.Steps, StepRecord{Key: StepKey(step.Key), Status: status})
	}
	return Reduce(StepperState{}, SetInitialValue{State: state})
}
