package domain

// Document keys used by local caches. They match the keys the browser front-end uses
// in local storage so caches written by either side are interchangeable.
const (
	KeyStepper = "trs_stepper"
	KeyForm    = "certificateForm"
)

// LastStep is the final (review and submit) step of the wizard.
const LastStep = StepReview
