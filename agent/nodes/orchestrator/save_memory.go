package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	statex "github.com/chanakan-p/donna-agent/agent/state"
)

// SaveMemory is the turn's single commit point. Every node before it mutates
// only the private copy, so any earlier failure leaves the stored memory
// exactly as the previous turn wrote it.
func SaveMemory(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	in.Memory.Touch(in.Now)
	if err := in.Memory.Validate(); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, in.Memory); err != nil {
		return nil, err
	}
	return in, nil
}

// FinalizeReply closes the turn with the done event. A stream the client
// already abandoned is not an error this late: the turn's work is committed.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := in.Emit(contractx.StreamEvent{Type: contractx.EventDone}); err != nil && !errors.Is(err, contractx.ErrStreamClosed) {
		return GraphOutput{}, err
	}
	return GraphOutput{Reply: in.Reply}, nil
}
