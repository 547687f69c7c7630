package schema

import (
	"math"
	"strings"
	"time"
)

// longTextThreshold is the string length past which a sampled value is
// treated as long-form text rather than a short field.
const longTextThreshold = 100

// MapColumnType maps a declared storage type and column name to a
// semantic type. The rules are checked in a fixed order so every input
// has exactly one answer.
func MapColumnType(name, storageType string) SemanticType {
	st := strings.ToLower(storageType)

	switch {
	case strings.HasSuffix(name, "_id"), strings.Contains(st, "uuid"), strings.Contains(st, "int"):
		return TypeID
	case strings.Contains(st, "timestamptz"), strings.Contains(st, "timestamp"), st == "date":
		return TypeTimestamp
	case st == "boolean", st == "bool":
		return TypeBoolean
	case strings.Contains(st, "numeric"), strings.Contains(st, "decimal"), strings.Contains(st, "float"), strings.Contains(st, "double"):
		return TypeNumber
	case strings.Contains(st, "text"):
		return TypeLongText
	default:
		return TypeText
	}
}

// InferValue infers a semantic type from a sampled JSON value and its
// field name. Name-based id detection wins over the value's shape, so
// a numeric foreign key is still an id.
func InferValue(name string, value any) SemanticType {
	if name == "id" || strings.HasSuffix(name, "_id") {
		return TypeID
	}

	switch v := value.(type) {
	case bool:
		return TypeBoolean
	case float64:
		// JSON numbers arrive as float64; an exact integer is still a
		// number here, the distinction only matters for coercion.
		return TypeNumber
	case string:
		if isTimestamp(v) {
			return TypeTimestamp
		}
		if isDate(v) {
			return TypeDate
		}
		if len(v) > longTextThreshold {
			return TypeLongText
		}
		return TypeText
	default:
		return TypeText
	}
}

// IsExactInteger reports whether a JSON number holds an integral value.
func IsExactInteger(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

func isTimestamp(s string) bool {
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	_, err := time.Parse("2006-01-02T15:04:05", s)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
