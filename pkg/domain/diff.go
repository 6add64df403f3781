package domain

import "reflect"

// StateDiff represents the changes between two stepper snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStep        *StepKey `json:"current_step,omitempty"`
	HasReachSubmitStep *bool    `json:"has_reach_submit_step,omitempty"`

	// Steps contains only added or changed records.
	Steps []StepRecord `json:"steps,omitempty"`

	// Removed lists keys whose record disappeared (e.g. after a reset).
	Removed []StepKey `json:"removed,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(sessionID string, oldState, newState *StepperState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: sessionID}

	if oldState == nil || oldState.CurrentStep != newState.CurrentStep {
		current := newState.CurrentStep
		diff.CurrentStep = &current
	}
	if oldState == nil || oldState.HasReachSubmitStep != newState.HasReachSubmitStep {
		submit := newState.HasReachSubmitStep
		diff.HasReachSubmitStep = &submit
	}

	diff.Steps, diff.Removed = diffSteps(oldState, newState)
	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffSteps(old, new *StepperState) (changed []StepRecord, removed []StepKey) {
	if old == nil {
		for _, step := range new.Steps {
			changed = append(changed, step.clone())
		}
		return changed, nil
	}

	for _, step := range new.Steps {
		prev, ok := old.Step(step.Key)
		if !ok || !reflect.DeepEqual(prev, step) {
			changed = append(changed, step.clone())
		}
	}

	for _, step := range old.Steps {
		if _, ok := new.Step(step.Key); !ok {
			removed = append(removed, step.Key)
		}
	}
	return changed, removed
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStep == nil &&
		d.HasReachSubmitStep == nil &&
		len(d.Steps) == 0 &&
		len(d.Removed) == 0
}
