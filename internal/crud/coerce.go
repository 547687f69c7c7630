// Package crud builds the generic list/get/create/update/delete
// operations for tables whose shape is only known at runtime. Each
// operation is a thin orchestration over the request pipeline; create
// and update additionally coerce submitted values to their semantic
// types and validate them before any network call is made.
package crud

import (
	"strconv"
	"strings"
	"time"

	"github.com/ArifBabayev05/backlify-client/internal/schema"
)

// Coerce converts submitted form values to the wire representation
// their semantic type expects. Fields not present in the schema pass
// through untouched. The input map is not modified.
func Coerce(s *schema.TableSchema, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		spec, ok := s.Field(name)
		if !ok {
			out[name] = value
			continue
		}
		out[name] = coerceValue(spec.Type, value)
	}
	return out
}

// coerceValue applies the single coercion rule for one semantic type.
// An empty string submitted for a non-text type means "no value" and
// becomes nil rather than a zero.
func coerceValue(t schema.SemanticType, value any) any {
	str, isString := value.(string)

	switch t {
	case schema.TypeNumber:
		if !isString {
			return value
		}
		if str == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return value
		}
		if schema.IsExactInteger(f) {
			return int64(f)
		}
		return f

	case schema.TypeBoolean:
		if !isString {
			return value
		}
		switch strings.ToLower(str) {
		case "true", "on", "1":
			return true
		case "false", "off", "0":
			return false
		case "":
			return nil
		}
		return value

	case schema.TypeDate:
		if !isString {
			return value
		}
		if str == "" {
			return nil
		}
		return normalizeDate(str)

	case schema.TypeTimestamp:
		if !isString {
			return value
		}
		if str == "" {
			return nil
		}
		return normalizeTimestamp(str)

	default:
		return value
	}
}

// normalizeDate renders any parseable date or date-time string as
// YYYY-MM-DD. Unparseable input passes through for the backend to
// reject with a proper message.
func normalizeDate(s string) any {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return s
}

// normalizeTimestamp renders any parseable date or date-time string in
// RFC 3339.
func normalizeTimestamp(s string) any {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return s
}
