package ports

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

// StepperCache is the local persistence of a wizard session. Each session holds two
// documents under fixed keys: the stepper state (domain.KeyStepper) and the form
// values (domain.KeyForm). It is an optimistic recovery cache, written before the
// remote backend and reconciled on the next successful load.
type StepperCache interface {
	// SaveState persists the stepper state for a session.
	SaveState(ctx context.Context, sessionID string, state domain.StepperState) error

	// LoadState retrieves the stepper state of a session.
	// Returns domain.ErrStateNotFound if nothing was cached.
	LoadState(ctx context.Context, sessionID string) (domain.StepperState, error)

	// SaveForm persists the registration form for a session.
	SaveForm(ctx context.Context, sessionID string, form *registration.RegistrationForm) error

	// LoadForm retrieves the registration form of a session.
	// Returns domain.ErrStateNotFound if nothing was cached.
	LoadForm(ctx context.Context, sessionID string) (*registration.RegistrationForm, error)

	// Clear removes both documents of a session. Clearing an unknown session is not an error.
	Clear(ctx context.Context, sessionID string) error

	// List returns the ids of all cached sessions.
	List(ctx context.Context) ([]string, error)
}
