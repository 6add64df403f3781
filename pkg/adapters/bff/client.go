// Package bff is a client for the registration endpoints of the directory's
// backend-for-frontend. It implements ports.RegistrationBackend.
package bff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

const (
	userAgent   = "stepper BFF client/v1"
	accept      = "application/json"
	contentType = "application/json; charset=utf-8"

	pathRegister     = "/v1/register"
	pathRegistration = "/v1/registration"
)

// Ensure Client satisfies the port.
var _ ports.RegistrationBackend = (*Client)(nil)

// Client talks to the registration API over HTTP. Requests are not retried.
type Client struct {
	endpoint *url.URL
	client   *http.Client
	token    string
}

type Option func(*Client)

// WithToken sets the bearer token used when the request context carries none.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// New creates a client for the API rooted at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("could not parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute url", endpoint)
	}

	c := &Client{
		endpoint: u,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type tokenKey struct{}

// ContextWithToken attaches a per-request bearer token, e.g. forwarded from an
// incoming request.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// Envelope is the body of the register endpoints: the document, the section it
// was limited to and the field errors reported by the server.
type Envelope struct {
	Step   domain.Section                 `json:"step,omitempty"`
	Form   *registration.RegistrationForm `json:"form"`
	Errors []*FieldError                  `json:"errors,omitempty"`
}

// FieldError is a validation error reported by the backend.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
	Index int    `json:"index"`
}

func (f *FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Error)
}

// Reply is the generic error body of the API.
type Reply struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Errors  []*FieldError `json:"errors,omitempty"`
}

// LoadRegistration fetches the stored document, optionally limited to a section.
func (c *Client) LoadRegistration(ctx context.Context, section domain.Section) (*registration.RegistrationForm, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, pathRegister, nil, sectionParams(section))
	if err != nil {
		return nil, err
	}

	out := &Envelope{}
	if _, err = c.Do(req, out); err != nil {
		return nil, err
	}
	return formOf(out), nil
}

// SaveRegistration replaces the stored document. A 204 reply yields a nil form.
func (c *Client) SaveRegistration(ctx context.Context, form *registration.RegistrationForm) (*registration.RegistrationForm, error) {
	if form == nil {
		return nil, errors.New("cannot save a nil registration form")
	}

	req, err := c.NewRequest(ctx, http.MethodPut, pathRegister, &Envelope{Form: form}, nil)
	if err != nil {
		return nil, err
	}

	out := &Envelope{}
	rep, err := c.Do(req, out)
	if err != nil {
		return nil, err
	}

	if rep.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return formOf(out), nil
}

// ResetRegistration restores a section, or the whole document, to its defaults.
func (c *Client) ResetRegistration(ctx context.Context, section domain.Section) (*registration.RegistrationForm, error) {
	req, err := c.NewRequest(ctx, http.MethodDelete, pathRegister, nil, sectionParams(section))
	if err != nil {
		return nil, err
	}

	out := &Envelope{}
	if _, err = c.Do(req, out); err != nil {
		return nil, err
	}
	return formOf(out), nil
}

// RegistrationStatus returns when the registration was submitted to each network.
func (c *Client) RegistrationStatus(ctx context.Context) (*ports.RegistrationStatus, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, pathRegistration, nil, nil)
	if err != nil {
		return nil, err
	}

	out := &ports.RegistrationStatus{}
	if _, err = c.Do(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func sectionParams(section domain.Section) url.Values {
	if section.IsAll() {
		return nil
	}
	return url.Values{"step": []string{string(section)}}
}

func formOf(env *Envelope) *registration.RegistrationForm {
	if env.Form == nil {
		return nil
	}
	return env.Form.Normalize()
}

// NewRequest creates a request against the API, resolving the path relative to the
// endpoint and serializing data as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, data any, params url.Values) (*http.Request, error) {
	endpoint := c.endpoint.ResolveReference(&url.URL{Path: strings.TrimSuffix(c.endpoint.Path, "/") + path})
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	var body io.Reader
	if data != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(data); err != nil {
			return nil, fmt.Errorf("could not serialize request data: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	token, ok := tokenFrom(ctx)
	if !ok {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// Do executes the request. Non-2xx replies are returned as *StatusError; a 2xx
// reply other than 204 is decoded into data.
func (c *Client) Do(req *http.Request, data any) (*http.Response, error) {
	rep, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not execute request: %w", err)
	}
	defer rep.Body.Close()

	if rep.StatusCode < 200 || rep.StatusCode >= 300 {
		serr := &StatusError{StatusCode: rep.StatusCode, Message: http.StatusText(rep.StatusCode)}

		// The error body is optional; ignore read or decode failures.
		var reply Reply
		if err := json.NewDecoder(rep.Body).Decode(&reply); err == nil {
			if reply.Error != "" {
				serr.Message = reply.Error
			}
			serr.Fields = reply.Errors
		}
		return rep, serr
	}

	if data != nil && rep.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(rep.Body).Decode(data); err != nil {
			return rep, fmt.Errorf("could not deserialize response data: %w", err)
		}
	}
	return rep, nil
}
