package reasoner

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	llmx "github.com/chanakan-p/donna-agent/agent/llm"
	promptx "github.com/chanakan-p/donna-agent/agent/prompt"
	toolx "github.com/chanakan-p/donna-agent/agent/tool"
	openaix "github.com/chanakan-p/donna-agent/pkg/openaiclient"
)

type registryImpl struct {
	planner   contractx.Planner
	responder contractx.Responder
}

// NewRegistry wires the planner and responder against one LLM configuration.
// The planner runs through the eino graph runtime for structured JSON output,
// the responder through the raw SDK client for token streaming.
func NewRegistry(
	ctx context.Context,
	cfg llmx.Config,
	catalogue []contractx.ToolSpec,
	contacts contractx.ContactDirectory,
) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(catalogue) == 0 {
		return nil, fmt.Errorf("%w: tool catalogue is empty", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()

	plannerCfg := cfg.For(llmx.RolePlanner)
	chatModel, err := plannerCfg.New(ctx)
	if err != nil {
		return nil, err
	}
	plannerPrompt := promptx.RenderPlanner(prompts.Planner, toolx.Describe(catalogue))
	planner, err := newPlanner(ctx, chatModel, plannerPrompt, catalogue, contacts)
	if err != nil {
		return nil, err
	}

	responderCfg := cfg.For(llmx.RoleResponder)
	client := openaix.NewClient(responderCfg)
	if client == nil {
		return nil, errors.New("reasoner: responder client requires an api key")
	}

	return &registryImpl{
		planner:   planner,
		responder: newResponder(client, responderCfg, prompts.Responder),
	}, nil
}

func (r *registryImpl) Planner() contractx.Planner {
	return r.planner
}

func (r *registryImpl) Responder() contractx.Responder {
	return r.responder
}
