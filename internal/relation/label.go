package relation

import (
	"fmt"
	"strings"
)

// Generic label fields, tried in order when no table-specific override
// applies. The combined first/last name pair slots in between the two
// groups.
var (
	primaryLabelFields  = []string{"name", "title", "label", "display_name", "full_name"}
	fallbackLabelFields = []string{"description", "email", "username"}
)

// LabelFor renders a human-readable label for a row of table, for use
// in pickers and summaries.
func LabelFor(row map[string]any, table string) string {
	if row == nil {
		return ""
	}

	switch table {
	case "users":
		for _, field := range []string{"name", "username", "email"} {
			if v := stringValue(row[field]); v != "" {
				return v
			}
		}
	case "loans":
		id := shortID(row["id"])
		if date := datePart(stringValue(row["created_at"])); date != "" {
			return fmt.Sprintf("Loan %s (%s)", id, date)
		}
		return "Loan " + id
	}

	for _, field := range primaryLabelFields {
		if v := stringValue(row[field]); v != "" {
			return v
		}
	}

	if first, last := stringValue(row["first_name"]), stringValue(row["last_name"]); first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}

	for _, field := range fallbackLabelFields {
		if v := stringValue(row[field]); v != "" {
			return v
		}
	}

	// Any field whose name suggests a label.
	for field, value := range row {
		if strings.Contains(field, "name") || strings.Contains(field, "title") {
			if v := stringValue(value); v != "" {
				return v
			}
		}
	}

	return fmt.Sprintf("%s %s", capitalize(singularize(table)), shortID(row["id"]))
}

// stringValue renders a scalar JSON value as a string, or "" for
// anything unrenderable.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return ""
	}
}

func shortID(v any) string {
	s := stringValue(v)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func datePart(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
