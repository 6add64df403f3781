package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/pkg/adapters/bff"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/aretw0/stepper/pkg/validation"
)

// ErrorReply is the body of every error response.
type ErrorReply struct {
	Error  string                      `json:"error"`
	Errors validation.ValidationErrors `json:"errors,omitempty"`
}

// fail maps err to a status code. Validation failures stay with the form (422),
// declined navigation is a conflict and backend problems are a bad gateway.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		navErr    *stepper.NavigationError
		statusErr *bff.StatusError
	)

	switch {
	case errors.As(err, &navErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorReply{
			Error:  err.Error(),
			Errors: localizer(r).Localize(navErr.Errors),
		})
		return
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorReply{Error: err.Error()})
		return
	case errors.Is(err, domain.ErrNavigationDeclined):
		writeJSON(w, http.StatusConflict, ErrorReply{Error: "the active step has unsaved changes, retry with decision=save or decision=discard"})
		return
	case errors.Is(err, registration.ErrInvalidPayload),
		errors.Is(err, domain.ErrUnknownSection),
		errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, domain.ErrInvalidStep):
		writeJSON(w, http.StatusBadRequest, ErrorReply{Error: err.Error()})
		return
	case errors.Is(err, stepper.ErrNoBackend):
		writeJSON(w, http.StatusNotImplemented, ErrorReply{Error: err.Error()})
		return
	case errors.Is(err, bff.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, ErrorReply{Error: err.Error()})
		return
	case errors.As(err, &statusErr):
		writeJSON(w, http.StatusBadGateway, ErrorReply{Error: err.Error()})
		return
	}

	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorReply{Error: "internal server error"})
}
