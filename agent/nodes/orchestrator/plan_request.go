package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

const statusPlanning = "Understanding your request..."

func PlanRequest(ctx context.Context, in *GraphState, planner contractx.Planner) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	if err := in.Emit(contractx.StreamEvent{Type: contractx.EventStatus, Content: statusPlanning}); err != nil {
		return nil, err
	}

	plan, err := planner.Plan(ctx, contractx.PlannerRequest{
		Utterance:   in.Effective,
		LastContext: in.Memory.LastContext,
		Now:         in.Now,
	})
	if err != nil {
		return nil, err
	}

	in.Plan = plan
	return in, nil
}
