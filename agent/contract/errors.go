package contract

import "errors"

var (
	// ErrModelInvoke marks failures reaching the reasoning collaborator
	// (network, timeout, provider error). The turn is aborted.
	ErrModelInvoke = errors.New("model invoke failed")

	// ErrPlanSchema marks reasoning output that is outside the Plan schema.
	// It is never coerced into a valid Plan.
	ErrPlanSchema = errors.New("plan violates schema")

	// ErrComposeFailed marks a failed final-response composition.
	ErrComposeFailed = errors.New("response compose failed")

	ErrValidation = errors.New("validation failed")

	// ErrUnknownTool is a programming defect: a plan step named a tool that
	// was never registered. Fatal to the turn, logged, never dropped.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrAuthFailure means the credential collaborator could not produce a
	// usable credential. Surfaced as a failed step outcome, not an abort.
	ErrAuthFailure = errors.New("credentials unavailable")

	// ErrStreamClosed is returned by an EmitFunc once the caller has
	// disconnected. No further events may be emitted after it is observed.
	ErrStreamClosed = errors.New("event stream closed")
)
