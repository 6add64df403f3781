package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/adapters/bff"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/aretw0/stepper/pkg/validation"
)

// maxBodySize bounds request payloads.
const maxBodySize = 1 << 20

// Server exposes the registration wizard of many sessions over HTTP. Confirmation
// gates are explicit in the requests: next accepts force=true and jump accepts
// decision=save|discard. The engine behind the manager should use
// ports.ContextConfirmer.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler (e.g. promhttp) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the server.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, enableCORS, forwardToken)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.Validate)
		r.Post("/sessions", s.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/state", s.GetState)
			r.Get("/form", s.GetForm)
			r.Delete("/form", s.ResetForm)
			r.Put("/values", s.SetValues)
			r.Post("/next", s.Next)
			r.Post("/previous", s.Previous)
			r.Post("/jump/{step}", s.Jump)
			r.Get("/status", s.GetSubmitStatus)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// forwardToken passes the caller's bearer token on to the registration backend.
func forwardToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
			r = r.WithContext(bff.ContextWithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "stepper-http",
		"version": strings.TrimSpace(stepper.Version),
	})
}

// CreateSession handles POST /v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondView(w, r, id, http.StatusCreated)
}

// GetSession handles GET /v1/sessions/{id}: the view of the active step.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StateReply is returned by GET /v1/sessions/{id}/state.
type StateReply struct {
	Stepper   domain.StepperState `json:"stepper"`
	FormState *domain.FormState   `json:"form_state"`
}

// GetState handles GET /v1/sessions/{id}/state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	var out StateReply
	err := s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, st *stepper.Stepper) error {
		out = StateReply{Stepper: st.State(), FormState: st.CurrentState()}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetForm handles GET /v1/sessions/{id}/form?step=, the document limited to a section.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(r.URL.Query().Get("step"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var out map[string]any
	err = s.Sessions.WithLock(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, st *stepper.Stepper) (err error) {
		out, err = st.Form().MarshalStep(section)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"step": section, "form": out})
}

// ResetForm handles DELETE /v1/sessions/{id}/form?step=.
func (s *Server) ResetForm(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(r.URL.Query().Get("step"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutateAndRespond(w, r, func(ctx context.Context, st *stepper.Stepper) error {
		return st.ResetSection(ctx, section)
	})
}

// SetValues handles PUT /v1/sessions/{id}/values.
func (s *Server) SetValues(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutateAndRespond(w, r, func(ctx context.Context, st *stepper.Stepper) error {
		return st.SetValues(ctx, payload)
	})
}

// Next handles POST /v1/sessions/{id}/next[?force=true].
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("force") == "true" {
		r = r.WithContext(ports.WithDecision(r.Context(), ports.DecisionContinue))
	}
	s.mutateAndRespond(w, r, func(ctx context.Context, st *stepper.Stepper) error {
		return st.NextStep(ctx, payload)
	})
}

// Previous handles POST /v1/sessions/{id}/previous.
func (s *Server) Previous(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutateAndRespond(w, r, func(ctx context.Context, st *stepper.Stepper) error {
		return st.PreviousStep(ctx, payload)
	})
}

// Jump handles POST /v1/sessions/{id}/jump/{step}[?decision=save|discard].
func (s *Server) Jump(w http.ResponseWriter, r *http.Request) {
	target, err := domain.ParseStepKey(chi.URLParam(r, "step"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	switch d := ports.Decision(r.URL.Query().Get("decision")); d {
	case "":
	case ports.DecisionSave, ports.DecisionDiscard, ports.DecisionCancel:
		r = r.WithContext(ports.WithDecision(r.Context(), d))
	default:
		writeJSON(w, http.StatusBadRequest, ErrorReply{Error: fmt.Sprintf("unknown decision %q", d)})
		return
	}

	s.mutateAndRespond(w, r, func(ctx context.Context, st *stepper.Stepper) error {
		return st.JumpToStep(ctx, target)
	})
}

// GetSubmitStatus handles GET /v1/sessions/{id}/status.
func (s *Server) GetSubmitStatus(w http.ResponseWriter, r *http.Request) {
	var out *ports.RegistrationStatus
	err := s.mutate(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, st *stepper.Stepper) (err error) {
		out, err = st.SubmitStatus(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Validate handles POST /v1/validate?step=, checking a whole document against a
// step's rules without touching any session.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	step := domain.StepReview
	if raw := r.URL.Query().Get("step"); raw != "" {
		var err error
		if step, err = domain.ParseStepKey(raw); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	payload, err := decodePayload(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form, err := registration.Decode(payload)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := validation.Completeness(step, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if !result.Valid() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ValidateReply{
		Step:    step,
		Valid:   result.Valid(),
		Status:  result.Status(),
		Missing: result.Missing,
		Errors:  localizer(r).Localize(result.Errors),
	})
}

// ValidateReply is returned by POST /v1/validate.
type ValidateReply struct {
	Step    domain.StepKey              `json:"step"`
	Valid   bool                        `json:"valid"`
	Status  domain.StepStatus           `json:"status"`
	Missing []string                    `json:"missing,omitempty"`
	Errors  validation.ValidationErrors `json:"errors,omitempty"`
}

// mutate runs fn under the session lock and broadcasts the resulting state diff.
func (s *Server) mutate(ctx context.Context, id string, fn func(context.Context, *stepper.Stepper) error) error {
	return s.Sessions.WithLock(ctx, id, func(ctx context.Context, st *stepper.Stepper) error {
		before := st.State()
		err := fn(ctx, st)
		after := st.State()

		if diff := domain.Diff(id, &before, &after); diff != nil {
			if bytes, merr := json.Marshal(diff); merr == nil {
				s.Streams.Broadcast(id, string(bytes))
			}
		}
		return err
	})
}

func (s *Server) mutateAndRespond(w http.ResponseWriter, r *http.Request, fn func(context.Context, *stepper.Stepper) error) {
	id := chi.URLParam(r, "id")
	if err := s.mutate(r.Context(), id, fn); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondView(w, r, id, http.StatusOK)
}

func (s *Server) respondView(w http.ResponseWriter, r *http.Request, id string, status int) {
	var view *stepper.View
	err := s.Sessions.WithLock(r.Context(), id, func(_ context.Context, st *stepper.Stepper) (err error) {
		view, err = st.View()
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view.Errors = localizer(r).Localize(view.Errors)
	writeJSON(w, status, view)
}

func decodePayload(r *http.Request) (map[string]any, error) {
	var payload map[string]any
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&payload)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", registration.ErrInvalidPayload, err)
	}
	return payload, nil
}

func localizer(r *http.Request) *validation.Localizer {
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		return validation.NewLocalizer(lang)
	}
	return validation.DefaultLocalizer
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
