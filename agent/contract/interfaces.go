package contract

import "context"

// Planner turns one utterance into a validated Plan. Stateless; all context
// arrives in the request.
type Planner interface {
	Plan(ctx context.Context, req PlannerRequest) (Plan, error)
}

// Responder phrases the final answer from execution results, streaming
// incremental text through emit, and returns the full text.
type Responder interface {
	Respond(ctx context.Context, req ResponderRequest, emit EmitFunc) (string, error)
}

// Registry groups the reasoning collaborators the orchestrator consumes.
type Registry interface {
	Planner() Planner
	Responder() Responder
}

// ToolExecutor runs an execute plan's steps strictly in order, emitting one
// step-start event per step, and never aborts on an individual tool failure.
type ToolExecutor interface {
	Execute(ctx context.Context, steps []ToolInvocation, emit EmitFunc) ([]ToolResult, error)
}

// ContactDirectory resolves a person's name to an email address. Lookup
// failures degrade to "not found", never to a hard error.
type ContactDirectory interface {
	LookupEmail(ctx context.Context, name string) (string, bool)
}
