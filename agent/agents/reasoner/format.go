package reasoner

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

const maxPayloadChars = 4000

// FormatResults renders every step outcome, successes and failures alike, as
// the evidence block handed to the response model. Nothing is filtered out:
// the responder is expected to surface failed steps to the user.
func FormatResults(results []contractx.ToolResult) string {
	if len(results) == 0 {
		return "No tool steps were executed."
	}

	var b strings.Builder
	for i, result := range results {
		purpose := result.Invocation.Purpose
		if purpose == "" {
			purpose = result.Invocation.Tool
		}
		fmt.Fprintf(&b, "Step %d: %s (%s)\n", i+1, purpose, result.Invocation.Tool)

		switch result.Status {
		case contractx.StepSucceeded:
			fmt.Fprintf(&b, "  result: %s\n", renderPayload(result.Payload))
		case contractx.StepSkipped:
			fmt.Fprintf(&b, "  skipped: %s\n", result.Error)
		default:
			fmt.Fprintf(&b, "  error: %s\n", result.Error)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPayload(payload any) string {
	if payload == nil {
		return "(no data)"
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	s := string(encoded)
	if len(s) > maxPayloadChars {
		s = s[:maxPayloadChars] + "...(truncated)"
	}
	return s
}
