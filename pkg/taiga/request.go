package taiga

import (
	"net/url"
	"strconv"
)

// Request encapsulates one outbound API operation: method, path relative to
// the host, optional query parameters, and an optional JSON body.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// projectQuery builds the ?project=<id> filter shared by every per-project
// listing endpoint, merging any extra caller-supplied filters.
func projectQuery(projectID int, filters map[string]any) url.Values {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	for k, v := range filters {
		q.Set(k, queryValue(v))
	}
	return q
}

func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// JSON numbers decode as float64; Taiga filters are integral.
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
