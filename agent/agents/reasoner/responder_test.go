package reasoner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	openaix "github.com/chanakan-p/donna-agent/pkg/openaiclient"
)

func chunkJSON(content string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":%q}}]}`, content)
}

func streamingServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunkJSON(chunk))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestResponder(t *testing.T, baseURL string) *responderImpl {
	t.Helper()
	maxTokens := 500
	cfg := openaix.Config{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		Model:              "gpt-4o-mini",
		MaxCompletionToken: &maxTokens,
		Temperature:        0.4,
	}
	client := openaix.NewClient(cfg)
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	return newResponder(client, cfg, "You phrase replies for the user.")
}

func TestRespondStreamsTokens(t *testing.T) {
	t.Parallel()

	srv := streamingServer(t, []string{"Sent ", "the ", "report."})
	defer srv.Close()

	r := newTestResponder(t, srv.URL)

	var got []string
	reply, err := r.Respond(context.Background(), contractx.ResponderRequest{
		Utterance: "send the report",
	}, func(event contractx.StreamEvent) error {
		if event.Type != contractx.EventText {
			t.Errorf("unexpected event type: %s", event.Type)
		}
		got = append(got, event.Content)
		return nil
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "Sent the report." {
		t.Fatalf("reply = %q", reply)
	}
	if strings.Join(got, "") != reply {
		t.Fatalf("streamed chunks %v do not concatenate to the reply", got)
	}
}

func TestRespondStopsWhenEmitFails(t *testing.T) {
	t.Parallel()

	srv := streamingServer(t, []string{"one", "two", "three"})
	defer srv.Close()

	r := newTestResponder(t, srv.URL)

	calls := 0
	_, err := r.Respond(context.Background(), contractx.ResponderRequest{Utterance: "x"},
		func(contractx.StreamEvent) error {
			calls++
			return contractx.ErrStreamClosed
		})
	if !errors.Is(err, contractx.ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected emission to stop after the first failure, got %d calls", calls)
	}
}

func TestRespondEmptyReplyIsComposeFailure(t *testing.T) {
	t.Parallel()

	srv := streamingServer(t, nil)
	defer srv.Close()

	r := newTestResponder(t, srv.URL)

	_, err := r.Respond(context.Background(), contractx.ResponderRequest{Utterance: "x"}, contractx.NopEmit)
	if !errors.Is(err, contractx.ErrComposeFailed) {
		t.Fatalf("expected ErrComposeFailed, got %v", err)
	}
}
