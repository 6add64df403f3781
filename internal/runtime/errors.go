package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/validation"
)

// ErrNoBackend is returned by operations that need the remote backend when none is
// configured.
var ErrNoBackend = errors.New("no registration backend configured")

// NavigationError is returned when a step change was blocked by validation. It
// matches domain.ErrNavigationDeclined and unwraps to the validation errors.
type NavigationError struct {
	From   domain.StepKey
	To     domain.StepKey
	Errors validation.ValidationErrors
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("cannot leave step %s for %s: %d invalid field(s)", e.From, e.To, len(e.Errors))
}

func (e *NavigationError) Unwrap() []error {
	return []error{domain.ErrNavigationDeclined, e.Errors}
}
