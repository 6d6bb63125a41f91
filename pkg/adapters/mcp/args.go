package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

// decodeArgs maps the raw tool arguments onto a typed struct. Decoding is
// weakly typed because JSON numbers arrive as float64 and some hosts send
// integers as strings.
func decodeArgs(request mcp.CallToolRequest, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "args",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := dec.Decode(request.GetArguments()); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// parseObjectArg accepts the loose encodings hosts use for free-form object
// parameters (kwargs, filters): a JSON object, a JSON-encoded string, or
// nothing at all.
func parseObjectArg(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || trimmed == "null" {
			return nil, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return nil, fmt.Errorf("expected a JSON object: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("expected a JSON object or string, got %T", v)
	}
}
