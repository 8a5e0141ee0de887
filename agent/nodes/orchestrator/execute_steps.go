package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

func ExecuteSteps(ctx context.Context, in *GraphState, executor contractx.ToolExecutor) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}
	if in.Plan.Kind != contractx.PlanExecute {
		return in, nil
	}

	results, err := executor.Execute(ctx, in.Plan.Steps, in.Emit)
	if err != nil {
		return nil, err
	}

	in.Results = results
	return in, nil
}
