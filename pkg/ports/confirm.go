package ports

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
)

// Decision is the answer to a confirmation gate.
type Decision string

const (
	// DecisionContinue advances despite missing or invalid data.
	DecisionContinue Decision = "continue"
	// DecisionSave persists the unsaved edits before navigating.
	DecisionSave Decision = "save"
	// DecisionDiscard drops the unsaved edits before navigating.
	DecisionDiscard Decision = "discard"
	// DecisionCancel stays on the current step.
	DecisionCancel Decision = "cancel"
)

// ConfirmKind identifies which gate is asking.
type ConfirmKind string

const (
	// ConfirmIncomplete is raised by NextStep when the active step fails validation.
	ConfirmIncomplete ConfirmKind = "incomplete"
	// ConfirmUnsaved is raised by JumpToStep when the active step has unsaved edits.
	ConfirmUnsaved ConfirmKind = "unsaved"
)

// ConfirmRequest describes the navigation waiting for a decision.
type ConfirmRequest struct {
	Kind   ConfirmKind
	Step   domain.StepKey
	Target domain.StepKey
	// Fields lists the failing fields for ConfirmIncomplete.
	Fields []string
}

// Confirmer is the modal of the wizard. Implementations block until the user has
// decided or the context is canceled.
type Confirmer interface {
	Confirm(ctx context.Context, req ConfirmRequest) (Decision, error)
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(ctx context.Context, req ConfirmRequest) (Decision, error)

func (f ConfirmFunc) Confirm(ctx context.Context, req ConfirmRequest) (Decision, error) {
	return f(ctx, req)
}

// Decide returns a Confirmer that always answers with the same decision.
func Decide(d Decision) Confirmer {
	return ConfirmFunc(func(context.Context, ConfirmRequest) (Decision, error) {
		return d, nil
	})
}

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a toast shown to the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Err     error
}

// Notifier surfaces non-fatal events to the user. It must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifyFunc adapts a function to a Notifier.
type NotifyFunc func(ctx context.Context, n Notification)

func (f NotifyFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type decisionKey struct{}

// WithDecision attaches a decision taken ahead of time, e.g. from a request
// parameter, for ContextConfirmer to return.
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

// DecisionFromContext returns the decision attached with WithDecision.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// ContextConfirmer answers gates with the decision carried by the context, or
// cancel when there is none. Stateless front-ends such as HTTP use it to make the
// gate explicit in the request.
type ContextConfirmer struct{}

func (ContextConfirmer) Confirm(ctx context.Context, _ ConfirmRequest) (Decision, error) {
	if d, ok := DecisionFromContext(ctx); ok {
		return d, nil
	}
	return DecisionCancel, nil
}
