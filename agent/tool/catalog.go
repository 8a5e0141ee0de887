package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

// Handler executes one tool invocation with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	spec    contractx.ToolSpec
	handler Handler
}

// Registry maps tool name to handler and advertises the catalogue to the
// planner. It is populated at process start and read-only afterwards, so
// concurrent reads need no locking.
type Registry struct {
	order   []string
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

func (r *Registry) Register(spec contractx.ToolSpec, handler Handler) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
	}
	if handler == nil {
		return fmt.Errorf("%w: tool %s has no handler", contractx.ErrValidation, name)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: tool %s registered twice", contractx.ErrValidation, name)
	}

	spec.Name = name
	r.entries[name] = entry{spec: spec, handler: handler}
	r.order = append(r.order, name)
	return nil
}

// Lookup resolves a tool by name. An unknown name is a programming-contract
// violation, fatal to the request.
func (r *Registry) Lookup(name string) (Handler, contractx.ToolSpec, error) {
	e, ok := r.entries[strings.TrimSpace(name)]
	if !ok {
		return nil, contractx.ToolSpec{}, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
	}
	return e.handler, e.spec, nil
}

// Catalogue returns the tool specs in registration order. The order is
// stable across calls so repeated planner prompts are deterministic.
func (r *Registry) Catalogue() []contractx.ToolSpec {
	out := make([]contractx.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].spec)
	}
	return out
}

// Describe renders the catalogue as the one-line-per-tool listing embedded
// in the planner prompt.
func Describe(catalogue []contractx.ToolSpec) string {
	var b strings.Builder
	for _, spec := range catalogue {
		params := make([]string, 0, len(spec.Params))
		for name, p := range spec.Params {
			qualifier := "optional"
			if p.Required {
				qualifier = "required"
			}
			params = append(params, fmt.Sprintf("%s: %s (%s)", name, p.Type, qualifier))
		}
		sort.Strings(params)
		fmt.Fprintf(&b, "- %s(%s): %s\n", spec.Name, strings.Join(params, ", "), spec.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
