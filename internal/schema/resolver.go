package schema

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ArifBabayev05/backlify-client/internal/api"
	"github.com/ArifBabayev05/backlify-client/internal/tracing"
)

// Resolver resolves table schemas. Resolution sources are tried in a
// fixed priority: explicit metadata, the in-session memo, sample-row
// inference, and finally the synthesized fallback. Safe for concurrent
// use.
type Resolver struct {
	client *api.Client
	logger zerolog.Logger

	mu       sync.RWMutex
	metadata map[string][]ColumnMeta
	memo     map[string]*TableSchema
}

// NewResolver creates a Resolver over the given pipeline.
func NewResolver(client *api.Client, logger zerolog.Logger) *Resolver {
	return &Resolver{
		client:   client,
		logger:   logger,
		metadata: make(map[string][]ColumnMeta),
		memo:     make(map[string]*TableSchema),
	}
}

// SetMetadata installs column declarations for a table, as returned by
// an upstream "describe all tables" call. Any memoized schema for the
// table is discarded so metadata takes effect immediately.
func (r *Resolver) SetMetadata(table string, columns []ColumnMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[table] = columns
	delete(r.memo, table)
}

// Resolve returns the schema for table. It never fails outright: when
// nothing better is available the fallback schema is returned, marked
// SourceFallback so callers know not to trust it. The only error is a
// cancelled context.
func (r *Resolver) Resolve(ctx context.Context, table string) (*TableSchema, error) {
	ctx, span := tracing.StartResolveSpan(ctx, table)
	defer span.End()

	// Metadata wins over everything, including the memo.
	r.mu.RLock()
	columns, hasMeta := r.metadata[table]
	memoized := r.memo[table]
	r.mu.RUnlock()

	if hasMeta && len(columns) > 0 {
		if memoized != nil && memoized.Source == SourceMetadata {
			return memoized, nil
		}
		s := fromMetadata(table, columns)
		r.remember(s)
		return s, nil
	}

	if memoized != nil {
		return memoized, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.fromSample(ctx, table)
	if s == nil {
		// Not memoized: the next Resolve re-attempts sample inference
		// so the fallback is replaced as soon as the table has a row.
		s = fallbackSchema(table)
		r.logger.Debug().Str("table", table).Msg("schema: using fallback")
		return s, nil
	}
	r.remember(s)
	return s, nil
}

// Evict drops the memoized schema for table, forcing the next Resolve
// to go back to the sources.
func (r *Resolver) Evict(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.memo, table)
}

func (r *Resolver) remember(s *TableSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo[s.Table] = s
}

// fromMetadata builds a schema from declared columns via the fixed
// storage-type mapping.
func fromMetadata(table string, columns []ColumnMeta) *TableSchema {
	fields := make(map[string]FieldSpec, len(columns))
	for _, col := range columns {
		spec := FieldSpec{
			Type:        MapColumnType(col.Name, col.Type),
			Constraints: col.Constraints,
		}
		for _, c := range col.Constraints {
			switch strings.ToLower(c) {
			case "not null":
				spec.Required = true
			case "primary key":
				spec.Primary = true
			}
		}
		fields[col.Name] = spec
	}
	return &TableSchema{Table: table, Fields: fields, Source: SourceMetadata}
}

// fromSample fetches one row and infers field types from the values.
// Returns nil when the table is empty or unreadable; the caller falls
// back.
func (r *Resolver) fromSample(ctx context.Context, table string) *TableSchema {
	resp, err := r.client.Execute(ctx, api.Request{
		Path:  "/" + table,
		Query: url.Values{"page": {"1"}, "limit": {"1"}},
	})
	if err != nil {
		r.logger.Debug().Err(err).Str("table", table).Msg("schema: sample fetch failed")
		return nil
	}

	env, err := api.ParseList(resp.Body)
	if err != nil || len(env.Rows) == 0 {
		return nil
	}

	row := env.Rows[0]
	fields := make(map[string]FieldSpec, len(row))
	for name, value := range row {
		fields[name] = FieldSpec{
			Type:    InferValue(name, value),
			Primary: name == "id",
		}
	}
	return &TableSchema{Table: table, Fields: fields, Source: SourceSample}
}

// fallbackSchema synthesizes a minimal schema so an empty table can
// still render a create form. Tables whose name mentions users get the
// usual account columns guessed in.
func fallbackSchema(table string) *TableSchema {
	fields := map[string]FieldSpec{
		"id":         {Type: TypeID, Primary: true},
		"created_at": {Type: TypeTimestamp},
		"updated_at": {Type: TypeTimestamp},
	}
	if strings.Contains(strings.ToLower(table), "user") {
		fields["username"] = FieldSpec{Type: TypeText, Required: true}
		fields["email"] = FieldSpec{Type: TypeText, Required: true}
		fields["password_hash"] = FieldSpec{Type: TypeText}
		fields["role_id"] = FieldSpec{Type: TypeID}
	}
	return &TableSchema{Table: table, Fields: fields, Source: SourceFallback}
}
