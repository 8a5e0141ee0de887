package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contactsx "github.com/chanakan-p/donna-agent/agent/contacts"
	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	toolx "github.com/chanakan-p/donna-agent/agent/tool"
)

const (
	statusNeedsClarification = "needs_clarification"
	statusConversation       = "conversation"
	statusReady              = "ready"
)

// plannerLLMOutput is the raw decision shape the planning model emits.
type plannerLLMOutput struct {
	Status       string     `json:"status"`
	Question     string     `json:"question,omitempty"`
	Response     string     `json:"response,omitempty"`
	Plan         []planStep `json:"plan,omitempty"`
	ResponseHint string     `json:"response_hint,omitempty"`
}

type planStep struct {
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params,omitempty"`
	Purpose   string         `json:"purpose,omitempty"`
	DependsOn *int           `json:"depends_on,omitempty"`
}

type plannerImpl struct {
	runner       compose.Runnable[map[string]any, plannerLLMOutput]
	systemPrompt string
	contacts     contractx.ContactDirectory
	knownTools   map[string]struct{}
}

func newPlanner(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	catalogue []contractx.ToolSpec,
	contacts contractx.ContactDirectory,
) (*plannerImpl, error) {
	runner, err := compileStructuredLLMGraph[plannerLLMOutput](ctx, chatModel, "planner_decision")
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(catalogue))
	for _, spec := range catalogue {
		known[spec.Name] = struct{}{}
	}
	if contacts == nil {
		contacts = contactsx.NoDirectory{}
	}
	return &plannerImpl{
		runner:       runner,
		systemPrompt: systemPrompt,
		contacts:     contacts,
		knownTools:   known,
	}, nil
}

func (p *plannerImpl) Plan(ctx context.Context, req contractx.PlannerRequest) (contractx.Plan, error) {
	utterance := strings.TrimSpace(req.Utterance)
	if utterance == "" {
		return contractx.Plan{}, fmt.Errorf("%w: empty utterance", contractx.ErrValidation)
	}

	payload := map[string]string{
		"utterance":    utterance,
		"last_context": req.LastContext,
		"today":        req.Now.Format("Monday, January 2, 2006"),
		"tomorrow":     req.Now.AddDate(0, 0, 1).Format("2006-01-02"),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return contractx.Plan{}, fmt.Errorf("%w: encode planner input: %v", contractx.ErrValidation, err)
	}

	out, err := p.runner.Invoke(ctx, map[string]any{
		"system": p.systemPrompt,
		"input":  string(encoded),
	})
	if err != nil {
		return contractx.Plan{}, fmt.Errorf("%w: planner: %v", contractx.ErrModelInvoke, err)
	}

	plan, err := buildPlan(out, p.knownTools)
	if err != nil {
		return contractx.Plan{}, err
	}
	plan = resolveRecipients(ctx, plan, p.contacts)
	if err := plan.Validate(); err != nil {
		return contractx.Plan{}, fmt.Errorf("%w: %v", contractx.ErrPlanSchema, err)
	}
	log.Debug().
		Str("kind", string(plan.Kind)).
		Int("steps", len(plan.Steps)).
		Msg("planner decision")
	return plan, nil
}

// buildPlan maps the model's decision onto the internal plan shape, rejecting
// anything outside the contract before it reaches the executor.
func buildPlan(out plannerLLMOutput, known map[string]struct{}) (contractx.Plan, error) {
	switch strings.TrimSpace(out.Status) {
	case statusNeedsClarification:
		question := strings.TrimSpace(out.Question)
		if question == "" {
			return contractx.Plan{}, fmt.Errorf("%w: clarification without a question", contractx.ErrPlanSchema)
		}
		return contractx.Plan{Kind: contractx.PlanClarify, Question: question}, nil

	case statusConversation:
		answer := strings.TrimSpace(out.Response)
		if answer == "" {
			return contractx.Plan{}, fmt.Errorf("%w: conversation without a response", contractx.ErrPlanSchema)
		}
		return contractx.Plan{Kind: contractx.PlanConverse, Answer: answer}, nil

	case statusReady:
		if len(out.Plan) == 0 {
			return contractx.Plan{}, fmt.Errorf("%w: ready decision with no steps", contractx.ErrPlanSchema)
		}
		steps := make([]contractx.ToolInvocation, 0, len(out.Plan))
		for i, raw := range out.Plan {
			name := strings.TrimSpace(raw.Tool)
			if name == "" {
				return contractx.Plan{}, fmt.Errorf("%w: step %d has no tool", contractx.ErrPlanSchema, i)
			}
			if _, ok := known[name]; !ok {
				return contractx.Plan{}, fmt.Errorf("%w: step %d names unknown tool %q", contractx.ErrPlanSchema, i, name)
			}
			args := raw.Params
			if args == nil {
				args = map[string]any{}
			}
			dependsOn := -1
			if raw.DependsOn != nil {
				dependsOn = *raw.DependsOn
			}
			steps = append(steps, contractx.ToolInvocation{
				Tool:      name,
				Args:      args,
				Purpose:   strings.TrimSpace(raw.Purpose),
				DependsOn: dependsOn,
			})
		}
		return contractx.Plan{
			Kind:         contractx.PlanExecute,
			Steps:        steps,
			ResponseHint: strings.TrimSpace(out.ResponseHint),
		}, nil

	default:
		return contractx.Plan{}, fmt.Errorf("%w: unknown status %q", contractx.ErrPlanSchema, out.Status)
	}
}

// resolveRecipients patches send_email steps whose "to" is a bare name by
// looking the address up in the contact directory. An unresolvable recipient
// downgrades the whole plan to a clarification instead of letting the model
// invent an address.
func resolveRecipients(ctx context.Context, plan contractx.Plan, contacts contractx.ContactDirectory) contractx.Plan {
	if plan.Kind != contractx.PlanExecute {
		return plan
	}
	for _, step := range plan.Steps {
		if step.Tool != toolx.ToolSendEmail {
			continue
		}
		candidate, _ := step.Args["to"].(string)
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return contractx.Plan{Kind: contractx.PlanClarify, Question: "Who should receive the email?"}
		}
		if addr, ok := parseEmail(candidate); ok {
			step.Args["to"] = addr
			continue
		}
		email, ok := contacts.LookupEmail(ctx, candidate)
		if !ok {
			return contractx.Plan{
				Kind:     contractx.PlanClarify,
				Question: fmt.Sprintf("What is %s's email address?", candidate),
			}
		}
		step.Args["to"] = email
	}
	return plan
}

func parseEmail(s string) (string, bool) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", false
	}
	return addr.Address, true
}
