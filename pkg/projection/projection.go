// Package projection shapes API responses for tool consumers.
//
// Taiga returns wide objects; an LLM caller rarely wants all of it. Each tool
// takes a verbosity level and the response is cut down to the fields that
// level names, with "full" passing everything through. The package also owns
// the write allowlists: optional creation/update fields are validated against
// a per-resource set before being forwarded.
package projection

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Verbosity selects how much of a response survives projection.
type Verbosity string

const (
	Minimal  Verbosity = "minimal"
	Standard Verbosity = "standard"
	Full     Verbosity = "full"
)

// ParseVerbosity normalizes a caller-supplied level. Anything unknown falls
// back to Standard with a warning rather than failing the call.
func ParseVerbosity(s string, logger *slog.Logger) Verbosity {
	switch Verbosity(strings.ToLower(s)) {
	case Minimal:
		return Minimal
	case Standard, "":
		return Standard
	case Full:
		return Full
	default:
		if logger != nil {
			logger.Warn("Unknown verbosity, using standard", "verbosity", s)
		}
		return Standard
	}
}

// FilterOne projects a single object down to the fields of the given level.
func FilterOne(obj map[string]any, kind string, v Verbosity) map[string]any {
	fields := fieldsFor(kind, v)
	if fields == nil || obj == nil {
		return obj
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if val, ok := obj[f]; ok {
			out[f] = val
		}
	}
	return out
}

// FilterList projects every element of a list response.
func FilterList(list []map[string]any, kind string, v Verbosity) []map[string]any {
	fields := fieldsFor(kind, v)
	if fields == nil || list == nil {
		return list
	}
	out := make([]map[string]any, len(list))
	for i, obj := range list {
		out[i] = FilterOne(obj, kind, v)
	}
	return out
}

func fieldsFor(kind string, v Verbosity) []string {
	if v == Full {
		return nil
	}
	levels, ok := responseFields[kind]
	if !ok {
		return nil
	}
	return levels[v]
}

// ValidateExtra checks optional write fields against the kind's allowlist.
// In strict mode an unexpected field is an error; otherwise it is stripped
// and logged. Unknown kinds pass through untouched.
func ValidateExtra(kind string, extra map[string]any, strict bool, logger *slog.Logger) (map[string]any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	allowed, ok := allowedFields[kind]
	if !ok {
		if logger != nil {
			logger.Warn("No field allowlist for resource kind", "kind", kind)
		}
		return extra, nil
	}

	var unexpected []string
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if _, ok := allowed[k]; ok {
			out[k] = v
		} else {
			unexpected = append(unexpected, k)
		}
	}

	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		if strict {
			return nil, fmt.Errorf("unexpected fields for %s: %s", kind, strings.Join(unexpected, ", "))
		}
		if logger != nil {
			logger.Warn("Stripping unexpected fields", "kind", kind, "fields", strings.Join(unexpected, ", "))
		}
	}
	return out, nil
}
