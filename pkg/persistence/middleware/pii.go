package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultPIIPatterns match the personal fields of the registration form by JSON key.
var DefaultPIIPatterns = []string{`^name$`, `^email$`, `^phone$`, `^national_identifier$`, `^customer_number$`}

type piiMiddleware struct {
	ports.StepperCache
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks string values of keys matching the
// patterns when forms are read. It is meant for read-only views of a cache, such as
// inspecting sessions from the command line: saving a masked form loses the values.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StepperCache) ports.StepperCache {
		return &piiMiddleware{StepperCache: next, patterns: patterns}
	}
}

func (m *piiMiddleware) LoadForm(ctx context.Context, sessionID string) (*registration.RegistrationForm, error) {
	form, err := m.StepperCache.LoadForm(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	maskMap(doc, m.patterns)

	if data, err = json.Marshal(doc); err != nil {
		return nil, err
	}
	masked := &registration.RegistrationForm{}
	if err := json.Unmarshal(data, masked); err != nil {
		return nil, fmt.Errorf("failed to rebuild masked form: %w", err)
	}
	return masked.Normalize(), nil
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		switch v := v.(type) {
		case string:
			if v == "" {
				continue
			}
			for _, p := range patterns {
				if p.MatchString(k) {
					m[k] = Mask
					break
				}
			}
		case map[string]any:
			maskMap(v, patterns)
		case []any:
			for _, item := range v {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}
