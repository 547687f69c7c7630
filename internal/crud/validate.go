package crud

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ArifBabayev05/backlify-client/internal/schema"
)

// Mode distinguishes create from update validation: id is exempt from
// required-field checks on create because the backend assigns it.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// ValidationError reports client-side rejections, keyed by field. It
// is returned before any network call is made; a rejected submission
// has no side effects.
type ValidationError struct {
	Table  string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return fmt.Sprintf("crud: %s: %s", e.Table, strings.Join(parts, "; "))
}

// identityField is populated from the session server-side and is never
// user-selected, so it is exempt from foreign-key checks.
const identityField = "user_id"

// Validate checks a coerced submission against the table's schema.
// Returns nil when the submission is acceptable, or a *ValidationError
// naming every offending field.
func Validate(s *schema.TableSchema, values map[string]any, mode Mode) *ValidationError {
	fields := make(map[string]string)

	// A present-but-empty foreign key means the user skipped a picker.
	for name, value := range values {
		if !isForeignKeyField(name) {
			continue
		}
		if isEmpty(value) {
			fields[name] = fmt.Sprintf("Please select a value for %s", humanize(name))
		}
	}

	for _, name := range s.RequiredFields() {
		if mode == ModeCreate && name == "id" {
			continue
		}
		if _, flagged := fields[name]; flagged {
			continue
		}
		value, present := values[name]
		if !present || isEmpty(value) {
			fields[name] = fmt.Sprintf("%s is required", humanize(name))
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Table: s.Table, Fields: fields}
}

// isForeignKeyField matches the *_id naming pattern, excluding the
// primary key and the identity field.
func isForeignKeyField(name string) bool {
	return strings.HasSuffix(name, "_id") && name != "id" && name != identityField
}

// isEmpty mirrors form semantics: nil and "" are empty, a false bool
// is a legitimate value.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

// humanize renders a column name for an error message: customer_id
// becomes "Customer", first_name becomes "First Name".
func humanize(name string) string {
	name = strings.TrimSuffix(name, "_id")
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
