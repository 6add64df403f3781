package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// StepKey is the 1-indexed position of a step in the registration wizard.
type StepKey int

const (
	StepBasicDetails StepKey = iota + 1
	StepLegalPerson
	StepContacts
	StepTRISA
	StepTRIXO
	StepReview
)

// Valid reports whether the key addresses one of the wizard steps.
func (k StepKey) Valid() bool {
	return k >= StepBasicDetails && k <= StepReview
}

// Section returns the part of the registration form edited at this step.
// The review step covers the whole form.
func (k StepKey) Section() Section {
	switch k {
	case StepBasicDetails:
		return SectionBasicDetails
	case StepLegalPerson:
		return SectionLegalPerson
	case StepContacts:
		return SectionContacts
	case StepTRISA:
		return SectionTRISA
	case StepTRIXO:
		return SectionTRIXO
	case StepReview:
		return SectionAll
	default:
		return SectionNone
	}
}

func (k StepKey) String() string {
	if !k.Valid() {
		return fmt.Sprintf("step(%d)", int(k))
	}
	if k == StepReview {
		return "review"
	}
	return string(k.Section())
}

// ParseStepKey accepts either a step number ("1".."6") or a section name.
func ParseStepKey(s string) (StepKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if k := StepKey(n); k.Valid() {
			return k, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrInvalidStep, n)
	}

	if s == "review" {
		return StepReview, nil
	}

	section, err := ParseSection(s)
	if err != nil {
		return 0, err
	}
	if k := section.Step(); k.Valid() {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStep, s)
}

// Section represents a collection of fields in the registration form that are handled
// together as a single step.
type Section string

const (
	SectionNone         Section = ""
	SectionAll          Section = "all"
	SectionBasicDetails Section = "basic"
	SectionLegalPerson  Section = "legal"
	SectionContacts     Section = "contacts"
	SectionTRISA        Section = "trisa"
	SectionTRIXO        Section = "trixo"
)

// Sections lists the editable sections in wizard order.
var Sections = []Section{
	SectionBasicDetails,
	SectionLegalPerson,
	SectionContacts,
	SectionTRISA,
	SectionTRIXO,
}

// ParseSection parses a string as a form section.
func ParseSection(s string) (Section, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Section(s) {
	case SectionNone, SectionAll, SectionBasicDetails, SectionLegalPerson,
		SectionContacts, SectionTRISA, SectionTRIXO:
		return Section(s), nil
	default:
		return SectionNone, fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
}

// Step returns the wizard step that edits the section. SectionAll maps to the review step.
func (s Section) Step() StepKey {
	switch s {
	case SectionBasicDetails:
		return StepBasicDetails
	case SectionLegalPerson:
		return StepLegalPerson
	case SectionContacts:
		return StepContacts
	case SectionTRISA:
		return StepTRISA
	case SectionTRIXO:
		return StepTRIXO
	case SectionAll, SectionNone:
		return StepReview
	default:
		return 0
	}
}

// IsAll is true for the empty section and "all", both of which address the whole form.
func (s Section) IsAll() bool {
	return s == SectionAll || s == SectionNone
}

func (s Section) String() string {
	return string(s)
}

// StepStatus is the progress marker shown for a step in the progress bar.
type StepStatus string

const (
	StatusProgress   StepStatus = "progress"
	StatusComplete   StepStatus = "complete"
	StatusSave       StepStatus = "save"
	StatusIncomplete StepStatus = "incomplete"
	StatusNext       StepStatus = "next"
	StatusError      StepStatus = "error"
)

// ParseStepStatus parses a status string, rejecting values outside the known set.
func ParseStepStatus(s string) (StepStatus, error) {
	switch st := StepStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusProgress, StatusComplete, StatusSave, StatusIncomplete, StatusNext, StatusError:
		return st, nil
	default:
		return "", fmt.Errorf("unknown step status %q", s)
	}
}

// UnmarshalText enforces the closed status set when decoding JSON or YAML.
func (s *StepStatus) UnmarshalText(text []byte) error {
	st, err := ParseStepStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
