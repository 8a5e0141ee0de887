package reasoner

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	openaix "github.com/chanakan-p/donna-agent/pkg/openaiclient"
)

type responderImpl struct {
	client       *openaisdk.Client
	model        string
	temperature  float64
	maxTokens    int64
	systemPrompt string
}

func newResponder(client *openaisdk.Client, cfg openaix.Config, systemPrompt string) *responderImpl {
	maxTokens := int64(2000)
	if cfg.MaxCompletionToken != nil && *cfg.MaxCompletionToken > 0 {
		maxTokens = int64(*cfg.MaxCompletionToken)
	}
	return &responderImpl{
		client:       client,
		model:        cfg.Model,
		temperature:  float64(cfg.Temperature),
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}
}

// Respond streams the composed reply token by token through emit and returns
// the full text once the stream is drained. A failed emit aborts the stream
// and reports the caller's error.
func (r *responderImpl) Respond(ctx context.Context, req contractx.ResponderRequest, emit contractx.EmitFunc) (string, error) {
	if emit == nil {
		emit = contractx.NopEmit
	}

	stream := r.client.Chat.Completions.NewStreaming(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(r.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(r.systemPrompt),
			openaisdk.UserMessage(buildComposeInput(req)),
		},
		Temperature: openaisdk.Float(r.temperature),
		MaxTokens:   openaisdk.Int(r.maxTokens),
	})
	defer stream.Close()

	var reply strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		reply.WriteString(delta)
		if err := emit(contractx.StreamEvent{Type: contractx.EventText, Content: delta}); err != nil {
			return reply.String(), err
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrComposeFailed, err)
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("%w: model returned an empty reply", contractx.ErrComposeFailed)
	}

	log.Debug().Int("chars", reply.Len()).Msg("composed reply")
	return reply.String(), nil
}

func buildComposeInput(req contractx.ResponderRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User request: %s\n\n", req.Utterance)
	b.WriteString("Tool results:\n")
	b.WriteString(FormatResults(req.Results))
	if hint := strings.TrimSpace(req.ResponseHint); hint != "" {
		fmt.Fprintf(&b, "\n\nFormatting hint: %s", hint)
	}
	return b.String()
}
