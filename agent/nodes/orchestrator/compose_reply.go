package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

const statusComposing = "Generating response..."

const maxContextChars = 400

// ComposeReply produces the turn's reply text. Execute plans go through the
// streaming responder, converse plans answer directly from the plan, and a
// clarify reply was already emitted by ApplyPlan.
func ComposeReply(ctx context.Context, in *GraphState, responder contractx.Responder) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	switch in.Plan.Kind {
	case contractx.PlanClarify:
		in.Memory.LastContext = clip("awaiting answer to: " + in.Plan.Question)

	case contractx.PlanConverse:
		if err := in.Emit(contractx.StreamEvent{Type: contractx.EventText, Content: in.Plan.Answer}); err != nil {
			return nil, err
		}
		in.Reply = in.Plan.Answer
		in.Memory.LastContext = clip("assistant replied: " + in.Plan.Answer)

	case contractx.PlanExecute:
		if err := in.Emit(contractx.StreamEvent{Type: contractx.EventStatus, Content: statusComposing}); err != nil {
			return nil, err
		}
		reply, err := responder.Respond(ctx, contractx.ResponderRequest{
			Utterance:    in.Effective,
			Results:      in.Results,
			ResponseHint: in.Plan.ResponseHint,
		}, in.Emit)
		if err != nil {
			return nil, err
		}
		in.Reply = reply
		in.Memory.LastContext = clip(fmt.Sprintf("request: %s | steps: %s", in.Effective, summarizeResults(in.Results)))
	}

	return in, nil
}

// summarizeResults is the compact steps digest kept in memory for the next
// planning turn. Failures are recorded, not hidden.
func summarizeResults(results []contractx.ToolResult) string {
	if len(results) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case contractx.StepSucceeded:
			parts = append(parts, r.Invocation.Tool+": ok")
		case contractx.StepSkipped:
			parts = append(parts, r.Invocation.Tool+": skipped")
		default:
			parts = append(parts, fmt.Sprintf("%s: failed (%s)", r.Invocation.Tool, r.Error))
		}
	}
	return strings.Join(parts, "; ")
}

func clip(s string) string {
	if len(s) <= maxContextChars {
		return s
	}
	return s[:maxContextChars]
}
