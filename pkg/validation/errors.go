package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the machine-readable reason of a field error. Codes double as message keys
// in the localization catalog.
type Code string

const (
	CodeRequired           Code = "required"
	CodeInvalidURL         Code = "invalid_url"
	CodeInvalidDate        Code = "invalid_date"
	CodeFutureDate         Code = "future_date"
	CodeUnknownValue       Code = "unknown_value"
	CodeTooLong            Code = "too_long"
	CodeTooShort           Code = "too_short"
	CodeNoLegalName        Code = "no_legal_name"
	CodeNoAddress          Code = "no_address"
	CodeAddressIncomplete  Code = "address_incomplete"
	CodeTooManyLines       Code = "too_many_address_lines"
	CodeInvalidCountry     Code = "invalid_country"
	CodeRANotAllowed       Code = "registration_authority_not_allowed"
	CodeCountryOfIssue     Code = "country_of_issue_not_allowed"
	CodeInvalidEmail       Code = "invalid_email"
	CodeNoNetwork          Code = "no_network"
	CodeInvalidEndpoint    Code = "invalid_endpoint"
	CodeCommonNameMismatch Code = "common_name_mismatch"
	CodeInvalidHostname    Code = "invalid_hostname"
	CodeDuplicateEndpoint  Code = "duplicate_endpoint"
	CodeYesNo              Code = "yes_no"
	CodeYesNoPartially     Code = "yes_no_partially"
	CodeNegative           Code = "negative"
)

// Presence reports whether the code signals absent data rather than invalid data.
// Presence errors keep a step "in progress"; any other error marks it as errored.
func (c Code) Presence() bool {
	switch c {
	case CodeRequired, CodeNoLegalName, CodeNoAddress, CodeAddressIncomplete, CodeNoNetwork:
		return true
	default:
		return false
	}
}

// ValidationError is a single field-level failure. Index addresses the element of a
// list field and is zero otherwise.
type ValidationError struct {
	Field   string `json:"field"`
	Index   int    `json:"index"`
	Code    Code   `json:"code"`
	Message string `json:"error"`
	Args    []any  `json:"-"`
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	return fmt.Sprintf("invalid field %s: %s", e.Field, msg)
}

// ValidationErrors collects every failure of a validation pass instead of stopping
// at the first one.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	errs := make([]string, 0, len(e))
	for _, err := range e {
		errs = append(errs, err.Error())
	}
	return fmt.Sprintf("%d validation errors occurred:\n  %s", len(e), strings.Join(errs, "\n  "))
}

// Append merges err into the collection. It returns false if err is non-nil and is
// not a validation error, in which case the collection is returned unchanged.
func (e ValidationErrors) Append(err error) (ValidationErrors, bool) {
	if err == nil {
		return e, true
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return append(e, verrs...), true
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return append(e, verr), true
	}
	return e, false
}

// Fields returns the distinct field paths that failed, in first-seen order.
func (e ValidationErrors) Fields() []string {
	seen := make(map[string]struct{}, len(e))
	fields := make([]string, 0, len(e))
	for _, err := range e {
		if _, ok := seen[err.Field]; ok {
			continue
		}
		seen[err.Field] = struct{}{}
		fields = append(fields, err.Field)
	}
	return fields
}

// Missing returns the distinct fields that failed a presence rule.
func (e ValidationErrors) Missing() []string {
	var missing ValidationErrors
	for _, err := range e {
		if err.Code.Presence() {
			missing = append(missing, err)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return missing.Fields()
}

// Has reports whether a field failed with the given code.
func (e ValidationErrors) Has(field string, code Code) bool {
	for _, err := range e {
		if err.Field == field && err.Code == code {
			return true
		}
	}
	return false
}

// AsValidationErrors extracts validation errors from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

type collector struct {
	errs ValidationErrors
}

func (c *collector) add(field string, code Code, args ...any) {
	c.errs = append(c.errs, &ValidationError{Field: field, Code: code, Args: args})
}

func (c *collector) addAt(field string, index int, code Code, args ...any) {
	c.errs = append(c.errs, &ValidationError{Field: field, Index: index, Code: code, Args: args})
}
