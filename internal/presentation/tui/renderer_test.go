package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/validation"
)

func TestMarkdown(t *testing.T) {
	state := domain.NewStepperState()
	state.Steps[0].IsDirty = true

	view := &stepper.View{
		SessionID: "s1",
		Step:      domain.StepBasicDetails,
		Section:   domain.SectionBasicDetails,
		State:     state,
		Values: map[string]any{
			"organization_name": "Acme | Co",
			"website":           "",
			"vasp_categories":   []any{"Exchange", "DEX"},
			"entity": map[string]any{
				"customer_number": "42",
			},
		},
		Errors: validation.ValidationErrors{
			{Field: "website", Code: "required", Message: "This field is required."},
		},
	}

	md := Markdown(view)
	assert.Contains(t, md, "# Step 1 of 6: basic")
	assert.Contains(t, md, "| 1. basic ◀ | progress (unsaved) |")
	assert.Contains(t, md, "| 2. legal | - |")
	assert.Contains(t, md, "| `organization_name` | Acme \\| Co |")
	assert.Contains(t, md, "| `vasp_categories[1]` | DEX |")
	assert.Contains(t, md, "| `entity.customer_number` | 42 |")
	assert.NotContains(t, md, "`website` |")
	assert.Contains(t, md, "- `website`: This field is required.")
}

func TestMarkdown_Empty(t *testing.T) {
	view := &stepper.View{Step: domain.StepBasicDetails, State: domain.NewStepperState()}
	md := Markdown(view)
	assert.Contains(t, md, "_No values yet._")
	assert.NotContains(t, md, "## Errors")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# Title")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
