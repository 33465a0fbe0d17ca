package output

import "strings"

// FilterIDs trims a result to one identifier style. "refs" keeps
// workspace:<n> style refs and drops UUIDs that have a ref next to them,
// "ids" does the opposite and "both" keeps everything. Nested maps and
// lists are filtered too.
func FilterIDs(v any, format string) any {
	switch format {
	case "refs", "ids":
	default:
		return v
	}
	return filterIDs(v, format == "refs")
}

func filterIDs(v any, refs bool) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			if dropKey(typed, key, refs) {
				continue
			}
			out[key] = filterIDs(val, refs)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = filterIDs(val, refs)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = filterIDs(val, refs)
		}
		return out
	default:
		return v
	}
}

func dropKey(m map[string]any, key string, refs bool) bool {
	if refs {
		if key == "id" {
			return present(m, "ref")
		}
		if prefix, ok := strings.CutSuffix(key, "_id"); ok {
			return present(m, prefix+"_ref")
		}
		return false
	}
	if key == "ref" {
		return present(m, "id")
	}
	if key == "tab_ref" {
		return present(m, "surface_id") || present(m, "id")
	}
	if prefix, ok := strings.CutSuffix(key, "_ref"); ok {
		return present(m, prefix+"_id")
	}
	return false
}

func present(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}
