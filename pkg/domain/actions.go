package domain

// Action is a reducer input. The set of actions is closed: each one knows how to
// produce the next state from a private copy of the previous one.
type Action interface {
	apply(StepperState) StepperState
}

// Reduce applies the action to a copy of the state and returns the new snapshot.
// The input state is never modified.
func Reduce(state StepperState, action Action) StepperState {
	if action == nil {
		return state.Snapshot()
	}
	return action.apply(state.Snapshot())
}

// SetCurrentStep moves the wizard to the given step.
type SetCurrentStep struct {
	Step StepKey
}

func (a SetCurrentStep) apply(s StepperState) StepperState {
	if !a.Step.Valid() {
		return s
	}
	if a.Step == StepReview {
		s.HasReachReviewStep = true
	}
	s.CurrentStep = a.Step
	return s
}

// IncrementStep advances one step (up to the review step), clearing the dirty flag of
// the step being left and adding a progress record for a step seen the first time.
type IncrementStep struct{}

func (IncrementStep) apply(s StepperState) StepperState {
	s = clearDirty(s, s.CurrentStep)
	if s.CurrentStep < LastStep {
		s.CurrentStep++
	}
	if s.CurrentStep == StepReview {
		s.HasReachReviewStep = true
	}
	return addStep(s, s.CurrentStep, StatusProgress)
}

// DecrementStep goes back one step (down to the first step).
type DecrementStep struct{}

func (DecrementStep) apply(s StepperState) StepperState {
	s = clearDirty(s, s.CurrentStep)
	if s.CurrentStep > StepBasicDetails {
		s.CurrentStep--
	}
	return s
}

// AddStep appends a record for the step unless one already exists. A zero Step
// targets the current step and an empty Status defaults to progress.
type AddStep struct {
	Step   StepKey
	Status StepStatus
}

func (a AddStep) apply(s StepperState) StepperState {
	key := a.Step
	if key == 0 {
		key = s.CurrentStep
	}
	status := a.Status
	if status == "" {
		status = StatusProgress
	}
	if !key.Valid() {
		return s
	}
	return addStep(s, key, status)
}

// SetStepStatus updates the status of the step's record. A zero Step targets the
// current step. Without a matching record the action is a no-op.
type SetStepStatus struct {
	Step   StepKey
	Status StepStatus
}

func (a SetStepStatus) apply(s StepperState) StepperState {
	key := a.Step
	if key == 0 {
		key = s.CurrentStep
	}
	for i := range s.Steps {
		if s.Steps[i].Key == key {
			s.Steps[i].Status = a.Status
		}
	}
	return s
}

// SetIsDirty flags unsaved edits on a step. A zero Step targets the current step.
type SetIsDirty struct {
	Step    StepKey
	IsDirty bool
}

func (a SetIsDirty) apply(s StepperState) StepperState {
	key := a.Step
	if key == 0 {
		key = s.CurrentStep
	}
	for i := range s.Steps {
		if s.Steps[i].Key == key {
			s.Steps[i].IsDirty = a.IsDirty
		}
	}
	return s
}

// SetStepMissingFields records the fields that failed validation on a step.
type SetStepMissingFields struct {
	Step   StepKey
	Fields []string
}

func (a SetStepMissingFields) apply(s StepperState) StepperState {
	key := a.Step
	if key == 0 {
		key = s.CurrentStep
	}
	for i := range s.Steps {
		if s.Steps[i].Key == key {
			if len(a.Fields) == 0 {
				s.Steps[i].MissingFields = nil
			} else {
				s.Steps[i].MissingFields = append([]string(nil), a.Fields...)
			}
		}
	}
	return s
}

// SetStepData stores the step's last submitted values on its record.
type SetStepData struct {
	Step StepKey
	Data map[string]any
}

func (a SetStepData) apply(s StepperState) StepperState {
	key := a.Step
	if key == 0 {
		key = s.CurrentStep
	}
	for i := range s.Steps {
		if s.Steps[i].Key == key {
			if a.Data == nil {
				s.Steps[i].Data = nil
			} else {
				s.Steps[i].Data = copyMap(a.Data)
			}
		}
	}
	return s
}

// SetHasReachSubmitStep flags that the user reached the submit step.
type SetHasReachSubmitStep struct {
	HasReachSubmitStep bool
}

func (a SetHasReachSubmitStep) apply(s StepperState) StepperState {
	s.HasReachSubmitStep = a.HasReachSubmitStep
	return s
}

// SetLastStep records the final step of the wizard; nil clears it.
type SetLastStep struct {
	LastStep *StepKey
}

func (a SetLastStep) apply(s StepperState) StepperState {
	if a.LastStep == nil {
		s.LastStep = nil
		return s
	}
	last := *a.LastStep
	s.LastStep = &last
	return s
}

// SetTestnetSubmitted records a TestNet submission.
type SetTestnetSubmitted struct {
	Submitted bool
}

func (a SetTestnetSubmitted) apply(s StepperState) StepperState {
	s.TestnetSubmitted = a.Submitted
	return s
}

// SetMainnetSubmitted records a MainNet submission.
type SetMainnetSubmitted struct {
	Submitted bool
}

func (a SetMainnetSubmitted) apply(s StepperState) StepperState {
	s.MainnetSubmitted = a.Submitted
	return s
}

// SetInitialValue replaces the whole state, e.g. when hydrating from the backend.
// Duplicate keys are collapsed (first record wins) to keep the one-record-per-key invariant.
type SetInitialValue struct {
	State StepperState
}

func (a SetInitialValue) apply(StepperState) StepperState {
	next := a.State.Snapshot()
	next.HasReachReviewStep = next.CurrentStep == StepReview
	if !next.CurrentStep.Valid() {
		next.CurrentStep = StepBasicDetails
	}

	seen := make(map[StepKey]struct{}, len(next.Steps))
	steps := make([]StepRecord, 0, len(next.Steps))
	for _, step := range next.Steps {
		if _, ok := seen[step.Key]; ok || !step.Key.Valid() {
			continue
		}
		seen[step.Key] = struct{}{}
		steps = append(steps, step)
	}
	next.Steps = steps
	if len(next.Steps) == 0 {
		next.Steps = NewStepperState().Steps
	}
	return next
}

// ClearStepper tears the wizard down to the initial single-step state.
type ClearStepper struct{}

func (ClearStepper) apply(StepperState) StepperState {
	return NewStepperState()
}

func addStep(s StepperState, key StepKey, status StepStatus) StepperState {
	for _, step := range s.Steps {
		if step.Key == key {
			return s
		}
	}
	s.Steps = append(s.Steps, StepRecord{Key: key, Status: status})
	return s
}

func clearDirty(s StepperState, key StepKey) StepperState {
	for i := range s.Steps {
		if s.Steps[i].Key == key {
			s.Steps[i].IsDirty = false
		}
	}
	return s
}
