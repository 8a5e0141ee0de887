package tool

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

// ValidateArgs checks planned arguments against a ToolSpec: required
// parameters must be present, values are coerced to the declared type, and
// declared defaults fill the gaps. Unknown arguments are dropped rather than
// forwarded. The input map is never mutated.
func ValidateArgs(spec contractx.ToolSpec, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(spec.Params))

	for name, param := range spec.Params {
		raw, ok := args[name]
		if !ok || raw == nil {
			if param.Required {
				return nil, fmt.Errorf("%w: %s is missing required argument %q", contractx.ErrValidation, spec.Name, name)
			}
			if param.Default != nil {
				out[name] = param.Default
			}
			continue
		}

		value, err := coerce(param.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %q: %v", contractx.ErrValidation, spec.Name, name, err)
		}
		out[name] = value
	}

	return out, nil
}

// coerce converts a JSON-decoded value to the declared parameter type.
// Numbers arrive as float64 from encoding/json.
func coerce(paramType string, raw any) (any, error) {
	switch paramType {
	case "string":
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	case "integer":
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", raw)
		}
	case "number":
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", raw)
		}
	case "boolean":
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected boolean, got %q", v)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("expected boolean, got %T", raw)
		}
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", paramType)
	}
}
