package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gridbase/gridbase/internal/schema"
)

// Coerced is the result of converting a raw filter value into a column
// type's native comparison representation.
type Coerced struct {
	OK    bool
	Value any
	Err   error
}

func coerceOK(v any) Coerced {
	return Coerced{OK: true, Value: v}
}

func coerceFail(err error) Coerced {
	return Coerced{Err: err}
}

// Coerce converts a raw value into the comparison representation for a column
// type. It is total: it never panics and never returns both OK and an error.
//
// Text-family values are stringified and trimmed; nil passes through as nil.
// Numeric and date values that fail to parse report failure. customArray
// values that fail a structured parse are kept as their raw string, matching
// the store's permissive handling of semi-structured values.
func Coerce(raw any, t schema.ColumnType) Coerced {
	switch t.Family() {
	case schema.FamilyNumber:
		n, ok := parseNumber(raw)
		if !ok {
			return coerceFail(fmt.Errorf("value %v is not numeric", raw))
		}
		return coerceOK(n)

	case schema.FamilyBoolean:
		b, ok := parseBool(raw)
		if !ok {
			return coerceFail(fmt.Errorf("value %v is not a boolean", raw))
		}
		return coerceOK(b)

	case schema.FamilyDate:
		ts, ok := parseTime(raw)
		if !ok {
			return coerceFail(fmt.Errorf("value %v is not a date", raw))
		}
		return coerceOK(ts)

	case schema.FamilyArray:
		if s, ok := raw.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err != nil {
				// Lenient: keep the raw string when it is not valid JSON.
				return coerceOK(s)
			}
			return coerceOK(parsed)
		}
		return coerceOK(raw)

	case schema.FamilyReference:
		// References pass through as string or array-of-strings unchanged.
		return coerceOK(raw)

	default:
		if raw == nil {
			return coerceOK(nil)
		}
		s, ok := stringify(raw)
		if !ok {
			return coerceFail(fmt.Errorf("value %v is not textual", raw))
		}
		return coerceOK(strings.TrimSpace(s))
	}
}

// stringify renders scalar values as strings. Composite values (maps, slices)
// are not stringified.
func stringify(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case int:
		return strconv.Itoa(s), true
	case int32:
		return strconv.FormatInt(int64(s), 10), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

// parseNumber parses a value as a float64 using locale-free parsing.
func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseBool accepts booleans, "true"/"false" strings and 0/1 values.
func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.TrimSpace(b) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	case float64:
		if b == 0 {
			return false, true
		}
		if b == 1 {
			return true, true
		}
		return false, false
	case int:
		if b == 0 {
			return false, true
		}
		if b == 1 {
			return true, true
		}
		return false, false
	default:
		return false, false
	}
}

// timeLayouts are tried in order for string date values. Layouts without a
// zone are interpreted in server-local time, consistent with the relative
// date operators (today, this_week, ...).
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses a value as an absolute instant.
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for i, layout := range timeLayouts {
			if i < 2 {
				if ts, err := time.Parse(layout, s); err == nil {
					return ts, true
				}
				continue
			}
			if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		// Epoch milliseconds
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	default:
		return time.Time{}, false
	}
}
