// Package validation holds one rule set per wizard step. Each schema runs against the
// whole registration document and reports every field failure at once.
package validation

import (
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

type rule func(*registration.RegistrationForm) ValidationErrors

// Schema is the stateless rule set of a single step.
type Schema struct {
	step  domain.StepKey
	rules []rule
}

// Step returns the step the schema validates.
func (s *Schema) Step() domain.StepKey {
	return s.step
}

// Validate returns nil or ValidationErrors with English messages. Use a Localizer to
// render them in another language.
func (s *Schema) Validate(form *registration.RegistrationForm) error {
	if errs := s.check(form); len(errs) > 0 {
		return DefaultLocalizer.Localize(errs)
	}
	return nil
}

func (s *Schema) check(form *registration.RegistrationForm) ValidationErrors {
	if form == nil {
		form = &registration.RegistrationForm{}
	}
	// Rules never see nil sub-objects and never modify the caller's document.
	form = form.Clone().Normalize()

	var errs ValidationErrors
	for _, r := range s.rules {
		errs = append(errs, r(form)...)
	}
	return errs
}

var schemas map[domain.StepKey]*Schema

func init() {
	schemas = map[domain.StepKey]*Schema{
		domain.StepBasicDetails: {step: domain.StepBasicDetails, rules: []rule{validBasicDetails}},
		domain.StepLegalPerson:  {step: domain.StepLegalPerson, rules: []rule{validLegalPerson}},
		domain.StepContacts:     {step: domain.StepContacts, rules: []rule{validContacts}},
		domain.StepTRISA:        {step: domain.StepTRISA, rules: []rule{validTRISA}},
		domain.StepTRIXO:        {step: domain.StepTRIXO, rules: []rule{validTRIXO}},
		domain.StepReview: {step: domain.StepReview, rules: []rule{
			validBasicDetails, validLegalPerson, validContacts, validTRISA, validTRIXO,
		}},
	}
}

// GetSchema returns the rule set of a step. The review step validates the whole form.
func GetSchema(step domain.StepKey) (*Schema, error) {
	schema, ok := schemas[step]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidStep, int(step))
	}
	return schema, nil
}

// ValidateSection validates the fields of a form section; SectionAll validates
// everything.
func ValidateSection(section domain.Section, form *registration.RegistrationForm) error {
	step := section.Step()
	schema, err := GetSchema(step)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}
	return schema.Validate(form)
}

// Result summarizes how far a step is from being complete.
type Result struct {
	Step    domain.StepKey
	Errors  ValidationErrors
	Missing []string
}

// Valid is true when the step passed every rule.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Complete is true when every required field of the step is present.
func (r Result) Complete() bool {
	return len(r.Missing) == 0
}

// Status derives the progress marker of the step: complete when valid, progress when
// required data is still missing and error when the data present is invalid.
func (r Result) Status() domain.StepStatus {
	switch {
	case r.Valid():
		return domain.StatusComplete
	case onlyPresence(r.Errors):
		return domain.StatusProgress
	default:
		return domain.StatusError
	}
}

func onlyPresence(errs ValidationErrors) bool {
	for _, err := range errs {
		if !err.Code.Presence() {
			return false
		}
	}
	return true
}

// Completeness runs the step's schema and reports the missing fields.
func Completeness(step domain.StepKey, form *registration.RegistrationForm) (Result, error) {
	schema, err := GetSchema(step)
	if err != nil {
		return Result{}, err
	}

	errs := DefaultLocalizer.Localize(schema.check(form))
	return Result{Step: step, Errors: errs, Missing: errs.Missing()}, nil
}
