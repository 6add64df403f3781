package domain

import "errors"

// ErrStateNotFound is returned when a session has no cached stepper state or form.
var ErrStateNotFound = errors.New("stepper state not found")

// ErrUnknownSection is returned when a section name cannot be parsed.
var ErrUnknownSection = errors.New("unknown registration form section")

// ErrInvalidStep is returned for step keys outside 1..6.
var ErrInvalidStep = errors.New("invalid step")

// ErrNavigationDeclined is returned when a confirmation gate declines a transition.
// The current step is left unchanged.
var ErrNavigationDeclined = errors.New("navigation declined")

// ErrInvalidSessionID is returned by caches for ids they cannot store.
var ErrInvalidSessionID = errors.New("invalid session id")
