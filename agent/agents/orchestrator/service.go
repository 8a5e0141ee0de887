package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	nodex "github.com/chanakan-p/donna-agent/agent/nodes/orchestrator"
	statex "github.com/chanakan-p/donna-agent/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

const failureReply = "Sorry, something went wrong while handling that. Please try again."

// Orchestrator drives one conversation turn end to end: plan, optionally
// execute, compose, commit. It is safe for concurrent use across sessions;
// serializing turns within one session is the transport's job.
type Orchestrator struct {
	store    statex.Store
	models   contractx.Registry
	executor contractx.ToolExecutor

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	executor contractx.ToolExecutor,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}

	o := &Orchestrator{
		store:    store,
		models:   models,
		executor: executor,
		now:      time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one turn and streams its events through emit. Exactly
// one done event closes every turn, failed ones included; on failure the
// session's stored memory is untouched.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string, emit contractx.EmitFunc) (string, error) {
	if emit == nil {
		emit = contractx.NopEmit
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
		Emit:      emit,
	})
	if err != nil {
		o.reportFailure(sessionID, emit, err)
		return "", err
	}
	return out.Reply, nil
}

func (o *Orchestrator) reportFailure(sessionID string, emit contractx.EmitFunc, cause error) {
	log.Error().Err(cause).Str("session_id", sessionID).Msg("turn failed")

	if errors.Is(cause, contractx.ErrStreamClosed) {
		return
	}
	if err := emit(contractx.StreamEvent{Type: contractx.EventText, Content: failureReply}); err != nil {
		return
	}
	_ = emit(contractx.StreamEvent{Type: contractx.EventDone})
}
