/*
Package ports defines the driven ports (interfaces) of the registration stepper.

These interfaces decouple the controller from external implementations, allowing
the wizard to run against various caches, registration backends and front-ends.

# Key Interfaces

  - StepperCache: The local recovery cache holding the stepper state and the form.
  - RegistrationBackend: The remote registration document API.
  - Confirmer: Asks the user to confirm a navigation that would skip or lose data.
  - Notifier: Surfaces non-fatal failures (toasts, banners, log lines).
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
