package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/responder.txt
	responderRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Planner   string
	Responder string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to
// call concurrently; the embed is compile-time, trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner:   strings.TrimSpace(plannerRaw),
		Responder: strings.TrimSpace(responderRaw),
	}
}

// RenderPlanner substitutes the tool catalogue listing into the planner
// prompt. Dates travel in the per-turn input payload, so the rendered
// prompt is stable for the process lifetime.
func RenderPlanner(raw, toolListing string) string {
	return strings.ReplaceAll(raw, "<<TOOLS>>", toolListing)
}
