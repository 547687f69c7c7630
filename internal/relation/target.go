// Package relation decides which fields are foreign keys, loads the
// rows of the referenced tables for picker population, and renders a
// human-readable label for any referenced row. Everything here
// degrades gracefully: a relationship that cannot be resolved or
// loaded yields nothing rather than an error.
package relation

import "strings"

// Declaration is an explicitly declared relationship between two
// tables, as reported by backend metadata.
type Declaration struct {
	Table        string // owning table
	SourceColumn string
	TargetTable  string
}

// staticTargets is the last-resort dictionary of common foreign-key
// names that do not match the referenced table's name by stemming.
var staticTargets = map[string]string{
	"author_id":   "users",
	"owner_id":    "users",
	"user_id":     "users",
	"created_by":  "users",
	"assigned_to": "users",
	"category_id": "categories",
}

// inferTarget resolves a field of table to the table it references.
// Precedence: own declaration, reverse cross-table declaration,
// name-based stemming against known tables, the static dictionary, and
// finally a bare plural guess for any remaining *_id field. A table's
// own primary id is never a foreign key.
func inferTarget(table, field string, declarations []Declaration, knownTables map[string]bool) (string, bool) {
	if field == "id" {
		return "", false
	}

	for _, d := range declarations {
		if d.Table == table && d.SourceColumn == field {
			return d.TargetTable, true
		}
	}
	for _, d := range declarations {
		if d.TargetTable == table && d.SourceColumn == field {
			return d.Table, true
		}
	}

	isFK := strings.HasSuffix(field, "_id")
	if isFK && len(knownTables) > 0 {
		stem := strings.TrimSuffix(field, "_id")
		for _, candidate := range []string{stem, stem + "s", pluralizeY(stem)} {
			if candidate != "" && knownTables[candidate] {
				return candidate, true
			}
		}
	}

	if target, ok := staticTargets[field]; ok {
		return target, true
	}

	if isFK {
		return strings.TrimSuffix(field, "_id") + "s", true
	}

	return "", false
}

// pluralizeY applies the -y to -ies rule, or "" when it does not apply.
func pluralizeY(stem string) string {
	if strings.HasSuffix(stem, "y") && len(stem) > 1 {
		return stem[:len(stem)-1] + "ies"
	}
	return ""
}

// singularize undoes simple English pluralization for display.
func singularize(table string) string {
	switch {
	case strings.HasSuffix(table, "ies"):
		return table[:len(table)-3] + "y"
	case strings.HasSuffix(table, "ses"):
		return table[:len(table)-2]
	case strings.HasSuffix(table, "s") && !strings.HasSuffix(table, "ss"):
		return table[:len(table)-1]
	default:
		return table
	}
}
