package models

import (
	"strconv"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// Row-mapping helpers. The row store hands us map[string]any with
// whatever JSON made of the column types; every optional field gets an
// explicit default here so nothing downstream ever sees an unmapped
// value.

func rowString(row backend.Row, key, def string) string {
	if v, ok := row[key].(string); ok && v != "" {
		return v
	}
	return def
}

func rowStringPtr(row backend.Row, key string) *string {
	if v, ok := row[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func rowBool(row backend.Row, key string, def bool) bool {
	if v, ok := row[key].(bool); ok {
		return v
	}
	return def
}

func rowFloat(row backend.Row, key string, def float64) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case string:
		// Numeric columns sometimes arrive as strings.
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func rowInt(row backend.Row, key string, def int) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func rowIntPtr(row backend.Row, key string) *int {
	switch v := row[key].(type) {
	case float64:
		n := int(v)
		return &n
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func rowTime(row backend.Row, key string) time.Time {
	if v, ok := row[key].(string); ok {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func rowTimePtr(row backend.Row, key string) *time.Time {
	t := rowTime(row, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func rowStringSlice(row backend.Row, key string) []string {
	raw, ok := row[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
