package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	statex "github.com/chanakan-p/donna-agent/agent/state"
)

func LoadMemory(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	mem, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
		in.Memory = mem
	case errors.Is(err, statex.ErrStateNotFound):
		in.Memory = statex.NewConversationMemory(in.SessionID, in.Now)
	default:
		return nil, err
	}
	return in, nil
}

// ResolvePending folds a stored incomplete request into the current message.
// With no pending request the message passes through untouched.
func ResolvePending(in *GraphState) (*GraphState, error) {
	if in == nil || in.Memory == nil {
		return nil, fmt.Errorf("%w: graph memory is nil", contractx.ErrValidation)
	}

	if in.Memory.Pending != nil {
		in.Effective = in.Memory.Pending.Merged(in.Text)
		in.MergedPending = true
	} else {
		in.Effective = in.Text
	}
	return in, nil
}
