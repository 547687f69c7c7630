// Package schema resolves a table name to a typed field map, working
// from explicit backend metadata when available and degrading through
// sample-row inference down to a synthesized fallback. The semantic
// types it assigns drive coercion and validation in the crud package.
package schema

// SemanticType is the abstract kind of a field, independent of the
// backend's storage type name. Every semantic type maps to exactly one
// coercion rule.
type SemanticType string

const (
	TypeText      SemanticType = "text"
	TypeLongText  SemanticType = "longtext"
	TypeNumber    SemanticType = "number"
	TypeBoolean   SemanticType = "boolean"
	TypeDate      SemanticType = "date"
	TypeTimestamp SemanticType = "timestamp"
	TypeID        SemanticType = "id"
)

// Source records which resolution path produced a schema. A fallback
// schema is a rendering aid, never authoritative; callers re-resolve
// once real data exists.
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceSample   Source = "sample"
	SourceFallback Source = "fallback"
)

// FieldSpec is one column's contract. Immutable once computed for a
// session.
type FieldSpec struct {
	Type        SemanticType
	Required    bool
	Primary     bool
	Constraints []string
}

// TableSchema is the resolved shape of one table.
type TableSchema struct {
	Table  string
	Fields map[string]FieldSpec
	Source Source
}

// ColumnMeta is one column as declared by an upstream discovery call,
// carrying the backend's storage type name and constraint strings.
type ColumnMeta struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Constraints []string `json:"constraints"`
}

// RequiredFields returns the names a submission must populate.
// created_at and updated_at are always excluded: they are populated
// server-side even when declared not-null.
func (s *TableSchema) RequiredFields() []string {
	var out []string
	for name, spec := range s.Fields {
		if !spec.Required {
			continue
		}
		if name == "created_at" || name == "updated_at" {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Field returns the field named name and whether it exists.
func (s *TableSchema) Field(name string) (FieldSpec, bool) {
	spec, ok := s.Fields[name]
	return spec, ok
}
