package bff

import (
	"fmt"
	"net/http"

	"github.com/aretw0/stepper/pkg/ports"
)

// ErrUnauthorized matches replies with status 401 or 403.
var ErrUnauthorized = ports.ErrUnauthorized

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	StatusCode int
	Message    string
	Fields     []*FieldError
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
