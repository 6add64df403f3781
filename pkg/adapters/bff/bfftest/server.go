// Package bfftest runs an in-memory implementation of the registration endpoints for
// tests and local demos.
package bfftest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/stepper/pkg/adapters/bff"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/validation"
)

// Server holds one registration document and serves it over chi.
type Server struct {
	mu     sync.Mutex
	form   *registration.RegistrationForm
	status ports.RegistrationStatus
	token  string
	strict bool
	fail   map[string]*failure
	calls  map[string]int
	router chi.Router
}

type failure struct {
	status  int
	message string
}

type Option func(*Server)

// WithToken requires every request to carry the bearer token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithStrictSave makes PUT validate the section named by the envelope's step and
// reject it with field errors.
func WithStrictSave() Option {
	return func(s *Server) {
		s.strict = true
	}
}

// WithForm seeds the stored document.
func WithForm(form *registration.RegistrationForm) Option {
	return func(s *Server) {
		s.form = form.Clone().Normalize()
	}
}

// NewServer creates the fake backend with a default document.
func NewServer(opts ...Option) *Server {
	s := &Server{
		form:  registration.NewForm(),
		fail:  make(map[string]*failure),
		calls: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.count, s.authenticate, s.inject)
	r.Get("/v1/register", s.loadRegistration)
	r.Put("/v1/register", s.saveRegistration)
	r.Delete("/v1/register", s.resetRegistration)
	r.Get("/v1/registration", s.registrationStatus)
	s.router = r
	return s
}

// Start serves the fake on a local listener until the returned server is closed.
func Start(opts ...Option) (*Server, *httptest.Server) {
	s := NewServer(opts...)
	return s, httptest.NewServer(s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Form returns a copy of the stored document.
func (s *Server) Form() *registration.RegistrationForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Clone()
}

// SetSubmitted records a submission timestamp for the network ("testnet" or "mainnet").
func (s *Server) SetSubmitted(network string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch network {
	case "testnet":
		s.status.TestnetSubmitted = at.Format(time.RFC3339)
	case "mainnet":
		s.status.MainnetSubmitted = at.Format(time.RFC3339)
	}
}

// Fail makes every request with the method reply with the status until Recover is
// called.
func (s *Server) Fail(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = &failure{status: status, message: message}
}

// Recover clears injected failures.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = make(map[string]*failure)
}

// Calls returns how many requests were received for the method.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token != s.token {
				reply(w, http.StatusUnauthorized, bff.Reply{Error: "authentication required"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.fail[r.Method]
		s.mu.Unlock()

		if f != nil {
			reply(w, f.status, bff.Reply{Error: f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loadRegistration(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(r.URL.Query().Get("step"))
	if err != nil {
		reply(w, http.StatusBadRequest, bff.Reply{Error: err.Error()})
		return
	}

	s.mu.Lock()
	view, err := s.form.MarshalStep(section)
	s.mu.Unlock()
	if err != nil {
		reply(w, http.StatusInternalServerError, bff.Reply{Error: err.Error()})
		return
	}
	reply(w, http.StatusOK, map[string]any{"step": section, "form": view})
}

func (s *Server) saveRegistration(w http.ResponseWriter, r *http.Request) {
	in := &bff.Envelope{}
	if err := json.NewDecoder(r.Body).Decode(in); err != nil || in.Form == nil {
		reply(w, http.StatusBadRequest, bff.Reply{Error: "could not parse registration form"})
		return
	}
	in.Form.Normalize()

	if s.strict {
		if err := validation.ValidateSection(in.Step, in.Form); err != nil {
			rep := bff.Reply{Error: "registration form is invalid"}
			var verrs validation.ValidationErrors
			if errors.As(err, &verrs) {
				for _, verr := range verrs {
					rep.Errors = append(rep.Errors, &bff.FieldError{Field: verr.Field, Error: verr.Message, Index: verr.Index})
				}
			}
			reply(w, http.StatusBadRequest, rep)
			return
		}
	}

	s.mu.Lock()
	if in.Step.IsAll() {
		s.form = in.Form.Clone()
	} else {
		_ = s.form.Update(in.Form, in.Step)
		s.form.State = in.Form.Clone().State
	}
	out := s.form.Clone()
	s.mu.Unlock()

	reply(w, http.StatusOK, &bff.Envelope{Form: out})
}

func (s *Server) resetRegistration(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(r.URL.Query().Get("step"))
	if err != nil {
		reply(w, http.StatusBadRequest, bff.Reply{Error: err.Error()})
		return
	}

	s.mu.Lock()
	err = s.form.Reset(section)
	view, _ := s.form.MarshalStep(section)
	s.mu.Unlock()
	if err != nil {
		reply(w, http.StatusInternalServerError, bff.Reply{Error: err.Error()})
		return
	}
	reply(w, http.StatusOK, map[string]any{"step": section, "form": view})
}

func (s *Server) registrationStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	reply(w, http.StatusOK, status)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
