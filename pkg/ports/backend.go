package ports

import (
	"context"
	"errors"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

// ErrUnauthorized is matched by backend errors caused by missing or rejected
// credentials. Unlike other backend failures it ends the session.
var ErrUnauthorized = errors.New("not authorized to access the registration form")

// RegistrationStatus holds RFC 3339 timestamps of the network submissions. Empty
// values mean the form was not submitted to that network yet.
type RegistrationStatus struct {
	TestnetSubmitted string `json:"testnet_submitted,omitempty"`
	MainnetSubmitted string `json:"mainnet_submitted,omitempty"`
}

// RegistrationBackend is the remote owner of the registration document. Calls are
// plain request/response without retries; failures are returned to the caller.
type RegistrationBackend interface {
	// LoadRegistration fetches the stored document. A non-empty section limits the
	// reply to that section plus the progress state.
	LoadRegistration(ctx context.Context, section domain.Section) (*registration.RegistrationForm, error)

	// SaveRegistration replaces the stored document and returns the server copy, which
	// may be nil when the backend replies without content.
	SaveRegistration(ctx context.Context, form *registration.RegistrationForm) (*registration.RegistrationForm, error)

	// ResetRegistration restores the section (or the whole document) to its defaults on
	// the server and returns the result.
	ResetRegistration(ctx context.Context, section domain.Section) (*registration.RegistrationForm, error)

	// RegistrationStatus reports whether the form was submitted to each network.
	RegistrationStatus(ctx context.Context) (*RegistrationStatus, error)
}
