package domain

// StepRecord tracks the progress of a single wizard step.
type StepRecord struct {
	Key           StepKey        `json:"key"`
	Status        StepStatus     `json:"status"`
	IsDirty       bool           `json:"isDirty,omitempty"`
	MissingFields []string       `json:"missingFields,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// StepperState represents the current snapshot of the wizard.
type StepperState struct {
	// CurrentStep is the active 1-indexed step.
	CurrentStep StepKey `json:"currentStep"`

	// Steps holds at most one record per key, in insertion order.
	Steps []StepRecord `json:"steps"`

	// LastStep is set once the wizard has been hydrated from the backend.
	LastStep *StepKey `json:"lastStep"`

	HasReachSubmitStep bool `json:"hasReachSubmitStep"`
	HasReachReviewStep bool `json:"hasReachReviewStep,omitempty"`
	TestnetSubmitted   bool `json:"testnetSubmitted,omitempty"`
	MainnetSubmitted   bool `json:"mainnetSubmitted,omitempty"`
}

// NewStepperState returns the initial single-step state.
func NewStepperState() StepperState {
	return StepperState{
		CurrentStep: StepBasicDetails,
		Steps: []StepRecord{
			{Key: StepBasicDetails, Status: StatusProgress},
		},
	}
}

// Step returns a copy of the record for the given key.
func (s StepperState) Step(key StepKey) (StepRecord, bool) {
	for _, step := range s.Steps {
		if step.Key == key {
			return step.clone(), true
		}
	}
	return StepRecord{}, false
}

// Current returns the record of the active step, if one has been added.
func (s StepperState) Current() (StepRecord, bool) {
	return s.Step(s.CurrentStep)
}

// IsDirty reports whether the given step has unsaved edits.
func (s StepperState) IsDirty(key StepKey) bool {
	step, ok := s.Step(key)
	return ok && step.IsDirty
}

// HasErrors reports whether any step is marked as errored.
func (s StepperState) HasErrors() bool {
	for _, step := range s.Steps {
		if step.Status == StatusError {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy so callers never share memory with a store.
func (s StepperState) Snapshot() StepperState {
	out := s
	if s.Steps != nil {
		out.Steps = make([]StepRecord, len(s.Steps))
		for i, step := range s.Steps {
			out.Steps[i] = step.clone()
		}
	}
	if s.LastStep != nil {
		last := *s.LastStep
		out.LastStep = &last
	}
	return out
}

func (r StepRecord) clone() StepRecord {
	out := r
	if r.MissingFields != nil {
		out.MissingFields = append([]string(nil), r.MissingFields...)
	}
	if r.Data != nil {
		out.Data = copyMap(r.Data)
	}
	return out
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case map[string]any:
			out[k] = copyMap(t)
		case []any:
			out[k] = copySlice(t)
		default:
			out[k] = v
		}
	}
	return out
}

func copySlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		switch t := v.(type) {
		case map[string]any:
			out[i] = copyMap(t)
		case []any:
			out[i] = copySlice(t)
		default:
			out[i] = v
		}
	}
	return out
}
