package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter        EventType = "step_enter"
	EventStepLeave        EventType = "step_leave"
	EventValidationFailed EventType = "validation_failed"
	EventPersist          EventType = "persist"
)

// Persistence targets reported in PersistEvent.
const (
	TargetLocal  = "local"
	TargetRemote = "remote"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entering or leaving a wizard step.
type StepEvent struct {
	EventBase
	Step      StepKey    `json:"step"`
	Status    StepStatus `json:"status,omitempty"`
	Direction string     `json:"direction,omitempty"` // next, previous or jump
}

// ValidationEvent is emitted when a step fails validation.
type ValidationEvent struct {
	EventBase
	Step   StepKey  `json:"step"`
	Fields []string `json:"fields"`
	Forced bool     `json:"forced"`
}

// PersistEvent reports a local or remote write.
type PersistEvent struct {
	EventBase
	Target   string        `json:"target"`
	Op       string        `json:"op"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnStepEnter        func(context.Context, *StepEvent)
	OnStepLeave        func(context.Context, *StepEvent)
	OnValidationFailed func(context.Context, *ValidationEvent)
	OnPersist          func(context.Context, *PersistEvent)
}

// Merge returns hooks calling h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:        chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:        chain(h.OnStepLeave, other.OnStepLeave),
		OnValidationFailed: chain(h.OnValidationFailed, other.OnValidationFailed),
		OnPersist:          chain(h.OnPersist, other.OnPersist),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(ctx context.Context, e E) {
			a(ctx, e)
			b(ctx, e)
		}
	}
}
