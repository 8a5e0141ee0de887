package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

func noopHandler(ctx context.Context, args map[string]any) (any, error) {
	return nil, nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	spec := contractx.ToolSpec{Name: "search_emails", Description: "search"}

	if err := r.Register(spec, noopHandler); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(spec, noopHandler); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate, got %v", err)
	}
}

func TestRegisterRejectsEmptyNameAndNilHandler(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(contractx.ToolSpec{Name: "  "}, noopHandler); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
	if err := r.Register(contractx.ToolSpec{Name: "x"}, nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil handler, got %v", err)
	}
}

func TestLookupUnknownTool(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, _, err := r.Lookup("nope")
	if !errors.Is(err, contractx.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestCataloguePreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(contractx.ToolSpec{Name: name}, noopHandler); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	catalogue := r.Catalogue()
	if len(catalogue) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(catalogue))
	}
	for i, want := range []string{"zeta", "alpha", "mid"} {
		if catalogue[i].Name != want {
			t.Fatalf("catalogue[%d] = %s, want %s", i, catalogue[i].Name, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	catalogue := []contractx.ToolSpec{
		{
			Name:        "search_emails",
			Description: "Search the mailbox.",
			Params: map[string]contractx.ParamSpec{
				"query":       {Type: "string", Required: true},
				"max_results": {Type: "integer", Default: 5},
			},
		},
	}

	got := Describe(catalogue)
	want := "- search_emails(max_results: integer (optional), query: string (required)): Search the mailbox."
	if got != want {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}

func TestValidateArgs(t *testing.T) {
	t.Parallel()

	spec := contractx.ToolSpec{
		Name: "search_emails",
		Params: map[string]contractx.ParamSpec{
			"query":       {Type: "string", Required: true},
			"max_results": {Type: "integer", Default: 5},
		},
	}

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		_, err := ValidateArgs(spec, map[string]any{"max_results": 3})
		if !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if !strings.Contains(err.Error(), "query") {
			t.Fatalf("error should name the missing argument: %v", err)
		}
	})

	t.Run("defaults fill gaps", func(t *testing.T) {
		t.Parallel()
		out, err := ValidateArgs(spec, map[string]any{"query": "from:bob"})
		if err != nil {
			t.Fatalf("ValidateArgs() error = %v", err)
		}
		if out["max_results"] != 5 {
			t.Fatalf("expected default max_results 5, got %v", out["max_results"])
		}
	})

	t.Run("json float becomes int", func(t *testing.T) {
		t.Parallel()
		out, err := ValidateArgs(spec, map[string]any{"query": "x", "max_results": float64(7)})
		if err != nil {
			t.Fatalf("ValidateArgs() error = %v", err)
		}
		if out["max_results"] != 7 {
			t.Fatalf("expected 7, got %v (%T)", out["max_results"], out["max_results"])
		}
	})

	t.Run("fractional float rejected", func(t *testing.T) {
		t.Parallel()
		_, err := ValidateArgs(spec, map[string]any{"query": "x", "max_results": 2.5})
		if !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown args dropped", func(t *testing.T) {
		t.Parallel()
		out, err := ValidateArgs(spec, map[string]any{"query": "x", "surprise": true})
		if err != nil {
			t.Fatalf("ValidateArgs() error = %v", err)
		}
		if _, ok := out["surprise"]; ok {
			t.Fatal("unknown argument should be dropped")
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		t.Parallel()
		in := map[string]any{"query": "x"}
		if _, err := ValidateArgs(spec, in); err != nil {
			t.Fatalf("ValidateArgs() error = %v", err)
		}
		if len(in) != 1 {
			t.Fatalf("input map mutated: %v", in)
		}
	})
}
