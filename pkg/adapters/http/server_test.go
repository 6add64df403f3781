package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/adapters/file"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/adapters/bff"
	"github.com/aretw0/stepper/pkg/adapters/bff/bfftest"
	stepperhttp "github.com/aretw0/stepper/pkg/adapters/http"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
	"github.com/aretw0/stepper/pkg/session"
)

func basicDetails() map[string]any {
	return map[string]any{
		"organization_name": "Acme VASP",
		"website":           "https://acme.example",
		"established_on":    "2019-05-01",
		"business_category": registration.BusinessEntity,
	}
}

func newHandler(t *testing.T, opts ...stepper.Option) http.Handler {
	t.Helper()
	eng := stepper.New(append([]stepper.Option{stepper.WithConfirmer(ports.ContextConfirmer{})}, opts...)...)
	return stepperhttp.NewHandler(session.ForEngine(eng))
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler, headers ...string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/v1/sessions", nil, headers...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view stepper.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotEmpty(t, view.SessionID)
	assert.Equal(t, domain.StepBasicDetails, view.Step)
	return view.SessionID
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) stepper.View {
	t.Helper()
	var view stepper.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view), w.Body.String())
	return view
}

func TestHealthAndInfo(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.TrimSpace(stepper.Version))
}

func TestNext(t *testing.T) {
	h := newHandler(t)
	id := createSession(t, h)

	t.Run("missing fields block", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", map[string]any{})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var reply stepperhttp.ErrorReply
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
		assert.Contains(t, reply.Errors.Fields(), "organization_name")
	})

	t.Run("valid payload advances", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", basicDetails())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		view := decodeView(t, w)
		assert.Equal(t, domain.StepLegalPerson, view.Step)
		rec, ok := view.State.Step(domain.StepBasicDetails)
		require.True(t, ok)
		assert.Equal(t, domain.StatusComplete, rec.Status)
	})

	t.Run("force skips the gate", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next?force=true", map[string]any{})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, domain.StepContacts, decodeView(t, w).Step)
	})

	t.Run("invalid payload", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", map[string]any{"unknown_key": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNext_LocalizedErrors(t *testing.T) {
	h := newHandler(t)
	id := createSession(t, h)

	messages := func(lang string) string {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", map[string]any{}, "Accept-Language", lang)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var reply stepperhttp.ErrorReply
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
		require.NotEmpty(t, reply.Errors)
		return reply.Errors[0].Message
	}

	assert.NotEqual(t, messages("en"), messages("fr-CH, fr;q=0.9"))
}

func TestPrevious(t *testing.T) {
	h := newHandler(t)
	id := createSession(t, h)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", basicDetails()).Code)
	w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/previous", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.StepBasicDetails, decodeView(t, w).Step)
}

func TestJump(t *testing.T) {
	h := newHandler(t)
	id := createSession(t, h)

	w := do(t, h, http.MethodPut, "/v1/sessions/"+id+"/values", map[string]any{"website": "https://draft.example"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://draft.example", decodeView(t, w).Values["website"])

	t.Run("unsaved edits conflict", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/jump/3", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown decision", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/jump/3?decision=maybe", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid step", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/jump/9?decision=discard", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("discard", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/jump/contacts?decision=discard", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, domain.StepContacts, decodeView(t, w).Step)

		w = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/form?step=basic", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "draft.example")
	})
}

func TestFormAndReset(t *testing.T) {
	h := newHandler(t)
	id := createSession(t, h)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", basicDetails()).Code)

	w := do(t, h, http.MethodGet, "/v1/sessions/"+id+"/form?step=basic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme VASP")

	w = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/form?step=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, "/v1/sessions/"+id+"/form?step=basic", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/form?step=basic", nil)
	assert.NotContains(t, w.Body.String(), "Acme VASP")

	w = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state stepperhttp.StateReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, domain.StepLegalPerson, state.Stepper.CurrentStep)
	require.NotNil(t, state.FormState)
	assert.Equal(t, int32(domain.StepLegalPerson), state.FormState.Current)
}

func TestDeleteSession(t *testing.T) {
	h := newHandler(t)
	id := createSession(t, h)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", basicDetails()).Code)

	w := do(t, h, http.MethodDelete, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/v1/sessions/"+id, nil).Code)
}

func TestUnknownSession(t *testing.T) {
	h := newHandler(t)
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := do(t, h, method, "/v1/sessions/never-created", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/v1/sessions/never-created/next", basicDetails()).Code)

	fh := newHandler(t, stepper.WithCache(file.New(t.TempDir())))
	assert.Equal(t, http.StatusBadRequest, do(t, fh, http.MethodGet, "/v1/sessions/tmp-x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, fh, http.MethodDelete, "/v1/sessions/tmp-x", nil).Code)
}

func TestNext_UnauthorizedBackend(t *testing.T) {
	fake, srv := bfftest.Start(bfftest.WithToken("secret"))
	t.Cleanup(srv.Close)
	client, err := bff.New(srv.URL)
	require.NoError(t, err)
	h := newHandler(t, stepper.WithBackend(client))

	id := createSession(t, h, "Authorization", "Bearer secret")

	w := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", basicDetails())
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	assert.Empty(t, fake.Form().OrganizationName)

	w = do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next?force=true", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/v1/sessions", nil).Code)
}

func TestSubmitStatus(t *testing.T) {
	t.Run("without backend", func(t *testing.T) {
		h := newHandler(t)
		id := createSession(t, h)
		assert.Equal(t, http.StatusNotImplemented, do(t, h, http.MethodGet, "/v1/sessions/"+id+"/status", nil).Code)
	})

	t.Run("forwards the bearer token", func(t *testing.T) {
		fake, srv := bfftest.Start(bfftest.WithToken("secret"))
		t.Cleanup(srv.Close)
		fake.SetSubmitted("testnet", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

		client, err := bff.New(srv.URL)
		require.NoError(t, err)
		h := newHandler(t, stepper.WithBackend(client))

		id := createSession(t, h, "Authorization", "Bearer secret")

		w := do(t, h, http.MethodGet, "/v1/sessions/"+id+"/status", nil, "Authorization", "Bearer secret")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "2026-01-02T03:04:05Z")

		w = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/status", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("backend failure", func(t *testing.T) {
		fake, srv := bfftest.Start()
		t.Cleanup(srv.Close)
		client, err := bff.New(srv.URL)
		require.NoError(t, err)
		h := newHandler(t, stepper.WithBackend(client))
		id := createSession(t, h)

		fake.Fail(http.MethodGet, http.StatusServiceUnavailable, "maintenance")
		assert.Equal(t, http.StatusBadGateway, do(t, h, http.MethodGet, "/v1/sessions/"+id+"/status", nil).Code)
	})
}

func TestValidate(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodPost, "/v1/validate?step=basic", basicDetails())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply stepperhttp.ValidateReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.True(t, reply.Valid)
	assert.Equal(t, domain.StatusComplete, reply.Status)

	w = do(t, h, http.MethodPost, "/v1/validate?step=1", map[string]any{"website": "not a url"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.False(t, reply.Valid)
	assert.Equal(t, domain.StatusError, reply.Status)
	assert.Contains(t, reply.Missing, "organization_name")

	w = do(t, h, http.MethodPost, "/v1/validate?step=42", basicDetails())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	h := newHandler(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	id := createSession(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/sessions/"+id+"/events?watch=current_step", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				lines <- line
			}
		}
	}()

	next := func() string {
		select {
		case line := <-lines:
			return line
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}
	require.Equal(t, "connected", next())

	// Editing values changes no step position and is filtered out.
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/v1/sessions/"+id+"/values", map[string]any{"website": "https://acme.example"}).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/sessions/"+id+"/next", basicDetails()).Code)

	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	assert.Equal(t, id, diff.SessionID)
	require.NotNil(t, diff.CurrentStep)
	assert.Equal(t, domain.StepLegalPerson, *diff.CurrentStep)
}

func TestStreamManager(t *testing.T) {
	sm := stepperhttp.NewStreamManager(logging.NewNop())
	ch, unsubscribe := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", "hello")
	sm.Broadcast("s2", "ignored")
	assert.Equal(t, "hello", <-ch)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	_, open := <-ch
	assert.False(t, open)
}
