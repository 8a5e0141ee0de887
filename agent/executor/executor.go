package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	toolx "github.com/chanakan-p/donna-agent/agent/tool"
)

const defaultStepTimeout = 60 * time.Second

// Executor dispatches an execute plan's steps against the tool registry.
// Steps run strictly sequentially in plan order: later steps may depend on
// the side effects of earlier ones, and tool side effects must not race.
type Executor struct {
	registry    *toolx.Registry
	stepTimeout time.Duration
}

type Option func(*Executor)

func WithStepTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

func New(registry *toolx.Registry, opts ...Option) (*Executor, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	e := &Executor{
		registry:    registry,
		stepTimeout: defaultStepTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Execute runs the steps in order and returns one result per step, in the
// same order. A failed step is recorded and execution continues; a step
// whose hard dependency failed is skipped. Only an unknown tool name (a
// programming defect) or a closed stream aborts the loop.
func (e *Executor) Execute(ctx context.Context, steps []contractx.ToolInvocation, emit contractx.EmitFunc) ([]contractx.ToolResult, error) {
	if emit == nil {
		emit = contractx.NopEmit
	}

	results := make([]contractx.ToolResult, 0, len(steps))
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if err := emit(contractx.StreamEvent{
			Type:    contractx.EventStatus,
			Content: stepDescription(i, step),
		}); err != nil {
			// Caller is gone: finish nothing further, report what ran.
			return results, err
		}

		if dep := step.DependsOn; dep >= 0 && dep < i && !results[dep].Succeeded() {
			log.Warn().
				Str("tool", step.Tool).
				Int("step", i).
				Int("failed_dependency", dep).
				Msg("skipping step, dependency failed")
			results = append(results, contractx.ToolResult{
				Invocation: step,
				Status:     contractx.StepSkipped,
				Error:      fmt.Sprintf("skipped: step %d (%s) did not succeed", dep+1, results[dep].Invocation.Tool),
			})
			continue
		}

		handler, spec, err := e.registry.Lookup(step.Tool)
		if err != nil {
			log.Error().Err(err).Int("step", i).Msg("plan step names an unregistered tool")
			return results, err
		}

		results = append(results, e.runStep(ctx, step, spec, handler))
	}

	return results, nil
}

func (e *Executor) runStep(ctx context.Context, step contractx.ToolInvocation, spec contractx.ToolSpec, handler toolx.Handler) contractx.ToolResult {
	args, err := toolx.ValidateArgs(spec, step.Args)
	if err != nil {
		return contractx.ToolResult{
			Invocation: step,
			Status:     contractx.StepFailed,
			Error:      err.Error(),
		}
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	started := time.Now()
	payload, err := handler(stepCtx, args)
	elapsed := time.Since(started)

	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("%s timed out after %s", step.Tool, e.stepTimeout)
		}
		log.Warn().
			Err(err).
			Str("tool", step.Tool).
			Dur("elapsed", elapsed).
			Msg("tool invocation failed")
		return contractx.ToolResult{
			Invocation: step,
			Status:     contractx.StepFailed,
			Error:      reason,
		}
	}

	log.Debug().Str("tool", step.Tool).Dur("elapsed", elapsed).Msg("tool invocation succeeded")
	return contractx.ToolResult{
		Invocation: step,
		Status:     contractx.StepSucceeded,
		Payload:    payload,
	}
}

func stepDescription(index int, step contractx.ToolInvocation) string {
	purpose := strings.TrimSpace(step.Purpose)
	if purpose == "" {
		purpose = step.Tool
	}
	return fmt.Sprintf("Step %d: %s...", index+1, purpose)
}
