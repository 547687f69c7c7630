package relation

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ArifBabayev05/backlify-client/internal/api"
	"github.com/ArifBabayev05/backlify-client/internal/tracing"
)

// DefaultPageLimit bounds how many rows of a referenced table are
// fetched for picker population.
const DefaultPageLimit = 100

// Resolver resolves foreign keys to their target tables and lazily
// loads the target tables' rows. Safe for concurrent use.
type Resolver struct {
	client    *api.Client
	logger    zerolog.Logger
	pageLimit int

	mu           sync.RWMutex
	declarations []Declaration
	knownTables  map[string]bool
	related      map[string][]map[string]any
}

// NewResolver creates a Resolver over the given pipeline. pageLimit
// <= 0 selects DefaultPageLimit.
func NewResolver(client *api.Client, logger zerolog.Logger, pageLimit int) *Resolver {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return &Resolver{
		client:      client,
		logger:      logger,
		pageLimit:   pageLimit,
		knownTables: make(map[string]bool),
		related:     make(map[string][]map[string]any),
	}
}

// SetDeclarations installs explicit relationship declarations from
// backend metadata.
func (r *Resolver) SetDeclarations(declarations []Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declarations = declarations
}

// SetKnownTables installs the list of table names that exist, enabling
// name-based foreign-key stemming to confirm its guesses.
func (r *Resolver) SetKnownTables(tables []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownTables = make(map[string]bool, len(tables))
	for _, t := range tables {
		r.knownTables[t] = true
	}
}

// Target reports whether field on table is a foreign key and which
// table it references.
func (r *Resolver) Target(table, field string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return inferTarget(table, field, r.declarations, r.knownTables)
}

// LoadRelated returns the rows of table, for populating a picker.
// Results are cached per table for the session. A table that cannot be
// read yields an empty list, never an error: a broken relationship
// must not block the form around it. When the exact name fails, the
// alternate singular or plural spelling is tried once before giving
// up.
func (r *Resolver) LoadRelated(ctx context.Context, table string) []map[string]any {
	r.mu.RLock()
	rows, ok := r.related[table]
	r.mu.RUnlock()
	if ok {
		return rows
	}

	ctx, span := tracing.StartRelatedSpan(ctx, table)
	defer span.End()

	rows, err := r.fetch(ctx, table)
	if err != nil {
		alt := alternateName(table)
		if alt != table {
			rows, err = r.fetch(ctx, alt)
		}
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("table", table).Msg("relation: load failed")
		return []map[string]any{}
	}

	r.mu.Lock()
	r.related[table] = rows
	r.mu.Unlock()
	return rows
}

// Evict drops the cached rows for table. Loaded picker rows are not
// invalidated automatically on mutation; callers who just wrote to a
// referenced table can force a reload with this.
func (r *Resolver) Evict(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.related, table)
}

func (r *Resolver) fetch(ctx context.Context, table string) ([]map[string]any, error) {
	resp, err := r.client.Execute(ctx, api.Request{
		Path: "/" + table,
		Query: url.Values{
			"page":  {"1"},
			"limit": {strconv.Itoa(r.pageLimit)},
		},
	})
	if err != nil {
		return nil, err
	}

	env, err := api.ParseList(resp.Body)
	if err != nil {
		return nil, err
	}
	if env.Rows == nil {
		return []map[string]any{}, nil
	}
	return env.Rows, nil
}

// alternateName flips between singular and plural spellings.
func alternateName(table string) string {
	if s := singularize(table); s != table {
		return s
	}
	if strings.HasSuffix(table, "y") {
		return table[:len(table)-1] + "ies"
	}
	return table + "s"
}
