package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	initial := NewStepperState()

	t.Run("Initial Load", func(t *testing.T) {
		diff := Diff("sess-1", nil, &initial)
		require.NotNil(t, diff)
		require.NotNil(t, diff.CurrentStep)
		assert.Equal(t, StepBasicDetails, *diff.CurrentStep)
		assert.Len(t, diff.Steps, 1)
	})

	t.Run("No Changes", func(t *testing.T) {
		same := initial.Snapshot()
		assert.Nil(t, Diff("sess-1", &initial, &same))
	})

	t.Run("Advance", func(t *testing.T) {
		next := Reduce(initial, SetStepStatus{Status: StatusComplete})
		next = Reduce(next, IncrementStep{})

		diff := Diff("sess-1", &initial, &next)
		require.NotNil(t, diff)
		assert.Equal(t, StepLegalPerson, *diff.CurrentStep)
		assert.Nil(t, diff.HasReachSubmitStep)
		assert.Len(t, diff.Steps, 2)

		data, err := json.Marshal(diff)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"current_step":2`)
	})

	t.Run("Reset Removes Steps", func(t *testing.T) {
		advanced := Reduce(initial, IncrementStep{})
		cleared := Reduce(advanced, ClearStepper{})

		diff := Diff("sess-1", &advanced, &cleared)
		require.NotNil(t, diff)
		assert.Equal(t, []StepKey{StepLegalPerson}, diff.Removed)
	})
}
