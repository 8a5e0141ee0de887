package orchestratornode

import (
	"fmt"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

// ApplyPlan commits the plan's effect on the pending request before anything
// executes. A clarify outcome keeps the merged request alive for the next
// turn; a resolved intent retires it.
func ApplyPlan(in *GraphState) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	switch in.Plan.Kind {
	case contractx.PlanClarify:
		if in.MergedPending {
			in.Memory.KeepPending(in.Text, in.Plan.Question, in.Now)
		} else {
			in.Memory.SetPending(in.Text, in.Plan.Question, in.Now)
		}
		if err := in.Emit(contractx.StreamEvent{Type: contractx.EventQuestion, Content: in.Plan.Question}); err != nil {
			return nil, err
		}
		in.Reply = in.Plan.Question

	case contractx.PlanConverse, contractx.PlanExecute:
		if in.MergedPending {
			in.Memory.ClearPending(in.Now)
		}

	default:
		return nil, fmt.Errorf("%w: unknown plan kind %q", contractx.ErrPlanSchema, in.Plan.Kind)
	}

	return in, nil
}
