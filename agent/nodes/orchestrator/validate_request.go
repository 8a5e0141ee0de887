package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	statex "github.com/chanakan-p/donna-agent/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
	Emit      contractx.EmitFunc
}

type GraphOutput struct {
	Reply string
}

// GraphState is the per-turn working set threaded through the graph nodes.
// The emitter rides along because the graph compiles once per process while
// the event stream belongs to a single request.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time
	Emit      contractx.EmitFunc

	Memory        *statex.ConversationMemory
	MergedPending bool
	Effective     string
	Plan          contractx.Plan
	Results       []contractx.ToolResult
	Reply         string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	emit := in.Emit
	if emit == nil {
		emit = contractx.NopEmit
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
		Emit:      emit,
	}, nil
}
