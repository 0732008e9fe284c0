package migrate

import (
	"strconv"
	"strings"
	"time"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Lenient accessors over decoded JSON. Legacy records were written by several
// generations of the app, so every read tolerates a missing or oddly typed
// value and falls back to the zero value.

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func array(v any) []any {
	a, _ := v.([]any)
	return a
}

// first returns the first non-nil value.
func first(vs ...any) any {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// firstFilled returns the first non-empty array or object, falling back to
// the first non-nil value. A partially migrated record can carry an empty
// canonical collection next to the legacy one that still holds the data.
func firstFilled(vs ...any) any {
	for _, v := range vs {
		switch x := v.(type) {
		case []any:
			if len(x) > 0 {
				return x
			}
		case map[string]any:
			if len(x) > 0 {
				return x
			}
		}
	}
	return first(vs...)
}

// str returns the first non-empty string (or number rendered as text) found
// under keys.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			s, _ := types.StringValue(v)
			return s
		}
	}
	return ""
}

// num returns the first numeric value under keys. Numeric strings count.
func num(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func flag(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if b, err := strconv.ParseBool(v); err == nil && b {
				return true
			}
		}
	}
	return false
}

func floatPtr(m map[string]any, key string) *float64 {
	if f, ok := num(m, key); ok {
		return &f
	}
	return nil
}

// idOf returns the id under "id" when it is usable.
func idOf(m map[string]any) string {
	id, _ := types.StringValue(m["id"])
	return id
}

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// timestamp renders a stored creation time as ISO-8601. Epoch milliseconds
// are converted; strings pass through.
func timestamp(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return time.UnixMilli(int64(x)).UTC().Format(isoLayout)
	}
	return ""
}

// appendUnique appends ids that are not yet in seen, preserving order.
func appendUnique(dst []string, seen map[string]bool, ids ...string) []string {
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		dst = append(dst, id)
	}
	return dst
}
