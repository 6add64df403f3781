/*
Package stepper is a headless engine for the multi-step TRISA certificate registration
wizard.

The wizard has six steps: basic details, legal person (IVMS101), contacts, TRISA
network endpoints, the TRIXO questionnaire and a final review. The engine tracks the
position of a session in the wizard, validates each step before it can be left, and
mirrors the registration form both to a local recovery cache and to the remote
registration backend.

# Architecture

The core is hexagonal. The wizard progress is a pure reducer over
domain.StepperState; the form is a typed document (registration.RegistrationForm);
step rules live in the validation package. Persistence and user interaction go
through ports:

  - ports.StepperCache: the local recovery cache (file, redis or memory adapters).
  - ports.RegistrationBackend: the remote document owner (the bff HTTP client).
  - ports.Confirmer: the modal asked before leaving an invalid or unsaved step.
  - ports.Notifier: where non-fatal backend errors are reported.

# Usage

	eng := stepper.New(
		stepper.WithCache(memory.NewCache()),
		stepper.WithConfirmer(ports.Decide(ports.DecisionCancel)),
	)

	s, err := eng.Open(ctx, "session-123")
	if err != nil {
		log.Fatal(err)
	}

	err = s.NextStep(ctx, map[string]any{"organization_name": ""})
	// err is a *runtime.NavigationError listing organization_name as required

Writes go to the local cache first and then to the backend. Backend failures never
block progress in the wizard: they are reported through the Notifier and the local
copy is reconciled with the backend the next time the session is opened.
*/
package stepper
