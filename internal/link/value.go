package link

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FormatValue renders a decoded frontmatter value as plain text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + FormatValue(x[k])
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// Strings flattens a scalar-or-list value into its non-empty string items.
func Strings(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(x))
		for _, s := range x {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s := FormatValue(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := FormatValue(v); s != "" {
		return []string{s}
	}
	return nil
}
