package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// stringify renders a document value as the text a form field would show.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(dayLayout)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// isBlank reports whether a value counts as absent for alias lookups.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		return t == ""
	}
	return false
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, t != nil
	case domain.RawReport:
		return map[string]any(t), t != nil
	case string:
		// Some producers store the payload as a JSON string.
		trimmed := strings.TrimSpace(t)
		if !strings.HasPrefix(trimmed, "{") {
			return nil, false
		}
		obj, err := domain.DecodeObject([]byte(trimmed))
		if err != nil {
			return nil, false
		}
		return obj, true
	}
	return nil, false
}

func asArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	}
	return nil, false
}

// objectsIn returns the object elements of an array value, skipping
// anything that is not an object.
func objectsIn(v any) []map[string]any {
	items, ok := asArray(v)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := asObject(item); ok {
			out = append(out, obj)
		}
	}
	return out
}
