package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepKey(t *testing.T) {
	tests := []struct {
		in   string
		want StepKey
		err  bool
	}{
		{"1", StepBasicDetails, false},
		{"6", StepReview, false},
		{" Legal ", StepLegalPerson, false},
		{"trisa", StepTRISA, false},
		{"review", StepReview, false},
		{"all", StepReview, false},
		{"0", 0, true},
		{"7", 0, true},
		{"unknown", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStepKey(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSectionStepMapping(t *testing.T) {
	for _, section := range Sections {
		assert.Equal(t, section, section.Step().Section())
	}
	assert.Equal(t, SectionAll, StepReview.Section())
	assert.True(t, SectionNone.IsAll())

	_, err := ParseSection("billing")
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestStepStatus_JSON(t *testing.T) {
	var rec StepRecord
	require.NoError(t, json.Unmarshal([]byte(`{"key":2,"status":"complete"}`), &rec))
	assert.Equal(t, StatusComplete, rec.Status)

	err := json.Unmarshal([]byte(`{"key":2,"status":"done"}`), &rec)
	assert.Error(t, err)
}

func TestFormStateRoundTrip(t *testing.T) {
	state := NewStepperState()
	state = Reduce(state, SetStepStatus{Status: StatusComplete})
	state = Reduce(state, SetStepMissingFields{Fields: []string{"x"}})
	state = Reduce(state, IncrementStep{})
	state = Reduce(state, SetHasReachSubmitStep{HasReachSubmitStep: true})

	fs := ToFormState(state)
	assert.Equal(t, int32(2), fs.Current)
	assert.True(t, fs.ReadyToSubmit)
	require.Len(t, fs.Steps, 2)
	assert.Equal(t, "complete", fs.Steps[0].Status)

	back := FromFormState(fs)
	assert.Equal(t, StepLegalPerson, back.CurrentStep)
	require.NotNil(t, back.LastStep)
	assert.Equal(t, LastStep, *back.LastStep)
	assert.Equal(t, StatusComplete, back.Steps[0].Status)
	assert.Nil(t, back.Steps[0].MissingFields, "client-only fields are not carried on the wire")

	assert.Equal(t, NewStepperState(), FromFormState(nil))
}
