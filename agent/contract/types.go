package contract

import (
	"fmt"
	"strings"
	"time"
)

// PlanKind is the planner's single decision for one utterance.
type PlanKind string

const (
	PlanClarify  PlanKind = "clarify"
	PlanConverse PlanKind = "converse"
	PlanExecute  PlanKind = "execute"
)

// ParamSpec describes one tool parameter.
type ParamSpec struct {
	Type        string `json:"type"` // "string" | "integer" | "number" | "boolean"
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

// ToolSpec is the immutable description of a registered capability,
// advertised to the planner and used to validate step arguments.
type ToolSpec struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ParamSpec `json:"params,omitempty"`
}

// ToolInvocation is one planned step. Ordering within a plan is significant:
// steps run sequentially, and DependsOn (an earlier step index, or -1) marks
// a hard dependency whose failure skips this step.
type ToolInvocation struct {
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	Purpose   string         `json:"purpose,omitempty"`
	DependsOn int            `json:"depends_on"`
}

// Plan is a closed tagged variant: exactly one of the three branches is
// populated, enforced by Validate before anything is dispatched.
type Plan struct {
	Kind         PlanKind         `json:"kind"`
	Question     string           `json:"question,omitempty"`
	Answer       string           `json:"answer,omitempty"`
	Steps        []ToolInvocation `json:"steps,omitempty"`
	ResponseHint string           `json:"response_hint,omitempty"`
}

func (p Plan) Validate() error {
	switch p.Kind {
	case PlanClarify:
		if strings.TrimSpace(p.Question) == "" {
			return fmt.Errorf("%w: clarify plan without question", ErrPlanSchema)
		}
		if len(p.Steps) > 0 || p.Answer != "" {
			return fmt.Errorf("%w: clarify plan carries extra branches", ErrPlanSchema)
		}
	case PlanConverse:
		if strings.TrimSpace(p.Answer) == "" {
			return fmt.Errorf("%w: converse plan without answer", ErrPlanSchema)
		}
		if len(p.Steps) > 0 || p.Question != "" {
			return fmt.Errorf("%w: converse plan carries extra branches", ErrPlanSchema)
		}
	case PlanExecute:
		if len(p.Steps) == 0 {
			return fmt.Errorf("%w: execute plan without steps", ErrPlanSchema)
		}
		if p.Question != "" || p.Answer != "" {
			return fmt.Errorf("%w: execute plan carries extra branches", ErrPlanSchema)
		}
		for i, step := range p.Steps {
			if strings.TrimSpace(step.Tool) == "" {
				return fmt.Errorf("%w: step %d has no tool name", ErrPlanSchema, i)
			}
			if step.DependsOn >= i {
				return fmt.Errorf("%w: step %d depends on step %d", ErrPlanSchema, i, step.DependsOn)
			}
			if step.DependsOn < -1 {
				return fmt.Errorf("%w: step %d has invalid depends_on", ErrPlanSchema, i)
			}
		}
	default:
		return fmt.Errorf("%w: unknown plan kind %q", ErrPlanSchema, string(p.Kind))
	}
	return nil
}

// StepStatus is the outcome of one executed step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	// StepSkipped means a hard dependency of the step failed, so the step
	// was never dispatched.
	StepSkipped StepStatus = "skipped"
)

// ToolResult pairs an invocation with its outcome. Every result, success or
// failure, must reach the responder's compose context.
type ToolResult struct {
	Invocation ToolInvocation `json:"invocation"`
	Status     StepStatus     `json:"status"`
	Payload    any            `json:"payload,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func (r ToolResult) Succeeded() bool { return r.Status == StepSucceeded }

// PlannerRequest carries everything the planner needs for one decision.
// The utterance is the merged text when a pending request was resolved.
type PlannerRequest struct {
	Utterance   string    `json:"utterance"`
	LastContext string    `json:"last_context,omitempty"`
	Now         time.Time `json:"now"`
}

// ResponderRequest carries execution results into response composition.
type ResponderRequest struct {
	Utterance    string       `json:"utterance"`
	Results      []ToolResult `json:"results"`
	ResponseHint string       `json:"response_hint,omitempty"`
}
