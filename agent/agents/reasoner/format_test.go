package reasoner

import (
	"strings"
	"testing"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

func TestFormatResultsEmpty(t *testing.T) {
	t.Parallel()

	if got := FormatResults(nil); got != "No tool steps were executed." {
		t.Fatalf("FormatResults(nil) = %q", got)
	}
}

func TestFormatResultsCoversEveryOutcome(t *testing.T) {
	t.Parallel()

	results := []contractx.ToolResult{
		{
			Invocation: contractx.ToolInvocation{Tool: "search_emails", Purpose: "find the thread"},
			Status:     contractx.StepSucceeded,
			Payload:    map[string]any{"count": 2},
		},
		{
			Invocation: contractx.ToolInvocation{Tool: "send_email"},
			Status:     contractx.StepFailed,
			Error:      "rate limited",
		},
		{
			Invocation: contractx.ToolInvocation{Tool: "create_calendar_event", Purpose: "book the slot"},
			Status:     contractx.StepSkipped,
			Error:      "skipped: step 2 (send_email) did not succeed",
		},
	}

	got := FormatResults(results)

	for _, want := range []string{
		"Step 1: find the thread (search_emails)",
		`result: {"count":2}`,
		"Step 2: send_email (send_email)",
		"error: rate limited",
		"Step 3: book the slot (create_calendar_event)",
		"skipped: step 2 (send_email) did not succeed",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderPayloadTruncates(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", maxPayloadChars+100)
	got := renderPayload(big)
	if !strings.HasSuffix(got, "...(truncated)") {
		t.Fatalf("expected truncation marker, got tail %q", got[len(got)-20:])
	}
}

func TestBuildComposeInputIncludesHint(t *testing.T) {
	t.Parallel()

	got := buildComposeInput(contractx.ResponderRequest{
		Utterance:    "send the report",
		ResponseHint: "confirm briefly",
	})
	if !strings.Contains(got, "User request: send the report") {
		t.Fatalf("utterance missing:\n%s", got)
	}
	if !strings.Contains(got, "Formatting hint: confirm briefly") {
		t.Fatalf("hint missing:\n%s", got)
	}
}
