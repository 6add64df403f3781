package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/pkg/domain"
)

type harness struct {
	shell   *Shell
	stepper *stepper.Stepper
	lines   chan string
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lines := make(chan string, 8)
	out := &bytes.Buffer{}

	eng := stepper.New(stepper.WithConfirmer(NewPromptConfirmer(lines, out)))
	st, err := eng.Open(context.Background(), "shell")
	require.NoError(t, err)

	return &harness{shell: NewShell(st, lines, out, nil), stepper: st, lines: lines, out: out}
}

func (h *harness) exec(t *testing.T, line string) {
	t.Helper()
	quit, err := h.shell.Exec(context.Background(), line)
	require.NoError(t, err)
	assert.False(t, quit)
}

func fillBasicDetails(t *testing.T, h *harness) {
	t.Helper()
	h.exec(t, "set organization_name=Acme VASP")
	h.exec(t, "set website=https://acme.example")
	h.exec(t, "set established_on=2019-05-01")
	h.exec(t, "set business_category=BUSINESS_ENTITY")
}

func TestShell_SetAndNext(t *testing.T) {
	h := newHarness(t)
	fillBasicDetails(t, h)
	assert.Equal(t, "Acme VASP", h.stepper.Form().OrganizationName)

	h.out.Reset()
	h.exec(t, "next")

	assert.Equal(t, domain.StepLegalPerson, h.stepper.State().CurrentStep)
	assert.Contains(t, h.out.String(), "# Step 2 of 6: legal")
}

func TestShell_NextBlocked(t *testing.T) {
	h := newHarness(t)
	h.lines <- "n"

	h.exec(t, "next")

	out := h.out.String()
	assert.Contains(t, out, "Continue anyway? [y/N]")
	assert.Contains(t, out, "Staying on step 1 (basic).")
	assert.Contains(t, out, "organization_name")
	assert.Equal(t, domain.StepBasicDetails, h.stepper.State().CurrentStep)
}

func TestShell_NextForced(t *testing.T) {
	h := newHarness(t)
	h.lines <- "yes"

	h.exec(t, "next")

	assert.Equal(t, domain.StepLegalPerson, h.stepper.State().CurrentStep)
	rec, ok := h.stepper.State().Step(domain.StepBasicDetails)
	require.True(t, ok)
	assert.NotEqual(t, domain.StatusComplete, rec.Status)
}

func TestShell_JumpWithUnsavedChanges(t *testing.T) {
	h := newHarness(t)
	h.exec(t, "set organization_name=Acme VASP")

	h.lines <- "x"
	h.lines <- "c"
	h.exec(t, "jump 3")
	assert.Contains(t, h.out.String(), "Navigation cancelled.")
	assert.Equal(t, domain.StepBasicDetails, h.stepper.State().CurrentStep)

	h.lines <- "d"
	h.exec(t, "jump contacts")
	assert.Equal(t, domain.StepContacts, h.stepper.State().CurrentStep)
	assert.Empty(t, h.stepper.Form().OrganizationName)
}

func TestShell_PrevResetAndClear(t *testing.T) {
	h := newHarness(t)
	fillBasicDetails(t, h)
	h.exec(t, "next")
	h.exec(t, "prev")
	assert.Equal(t, domain.StepBasicDetails, h.stepper.State().CurrentStep)

	h.exec(t, "reset")
	assert.Empty(t, h.stepper.Form().OrganizationName)

	h.exec(t, "set organization_name=Acme VASP")
	h.exec(t, "clear")
	assert.Empty(t, h.stepper.Form().OrganizationName)
	assert.Equal(t, domain.NewStepperState(), h.stepper.State())
}

func TestShell_Output(t *testing.T) {
	h := newHarness(t)

	h.exec(t, "state")
	assert.Contains(t, h.out.String(), `"currentStep": 1`)

	h.out.Reset()
	h.exec(t, "graph")
	assert.Contains(t, h.out.String(), "graph LR")

	h.out.Reset()
	h.exec(t, "validate")
	assert.Contains(t, h.out.String(), "organization_name")

	h.out.Reset()
	h.exec(t, "help")
	assert.Contains(t, h.out.String(), "jump <step>")
}

func TestShell_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, line := range []string{"set organization_name", "jump 9", "reset nowhere", "dance", "status"} {
		t.Run(line, func(t *testing.T) {
			_, err := h.shell.Exec(ctx, line)
			assert.Error(t, err)
		})
	}
}

func TestShell_Run(t *testing.T) {
	h := newHarness(t)
	h.lines <- "set organization_name=Acme VASP"
	h.lines <- "bogus"
	h.lines <- "quit"

	require.NoError(t, h.shell.Run(context.Background()))
	assert.Contains(t, h.out.String(), "Error: unknown command")
	assert.Equal(t, "Acme VASP", h.stepper.Form().OrganizationName)
}

func TestShell_RunEndOfInput(t *testing.T) {
	h := newHarness(t)
	close(h.lines)

	err := h.shell.Run(context.Background())
	assert.True(t, isInterrupted(err))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, "42", parseValue("42"))
	assert.Equal(t, []any{"EXCHANGE", "DEX"}, parseValue(`["EXCHANGE","DEX"]`))
	assert.Equal(t, "[broken", parseValue("[broken"))
}
