/*
Package domain contains the core models of the certificate registration stepper.

It defines the wizard position (StepperState), the per-step records (StepRecord), the
actions that mutate them and the pure reducer applying those actions. This package is
kept pure and free of I/O: persistence, validation and transport live in adapters.

# Key Entities

  - StepKey: The 1-indexed wizard step (basic details .. review).
  - Section: The part of the registration form a step edits.
  - StepRecord: Status, dirty flag and missing fields of a single step.
  - StepperState: The snapshot of a session (current step, records, submit flags).
  - Action: A reducer input; Reduce never mutates the state it receives.
  - FormState: The wire shape embedded in the registration document.
*/
package domain
