package crud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ArifBabayev05/backlify-client/internal/api"
	"github.com/ArifBabayev05/backlify-client/internal/schema"
)

// Executor runs the generic table operations. Safe for concurrent use.
type Executor struct {
	client  *api.Client
	schemas *schema.Resolver
	logger  zerolog.Logger
	gens    *generations
}

// New creates an Executor over the given pipeline and schema resolver.
func New(client *api.Client, schemas *schema.Resolver, logger zerolog.Logger) *Executor {
	return &Executor{
		client:  client,
		schemas: schemas,
		logger:  logger,
		gens:    newGenerations(),
	}
}

// ListResult is one page of rows plus whatever paging info the backend
// returned.
type ListResult struct {
	Rows       []map[string]any
	Pagination *api.Pagination
}

// List fetches one page of table's rows. A stale response, one that
// finished after a newer List for the same table started, is discarded
// with ErrSuperseded.
func (e *Executor) List(ctx context.Context, table string, page, limit int) (*ListResult, error) {
	gen := e.gens.begin("list:" + table)

	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	resp, err := e.client.Execute(ctx, api.Request{Path: "/" + table, Query: query})
	if err != nil {
		return nil, err
	}
	if !e.gens.isLatest("list:"+table, gen) {
		return nil, ErrSuperseded
	}

	env, err := api.ParseList(resp.Body)
	if err != nil {
		return nil, err
	}
	return &ListResult{Rows: env.Rows, Pagination: env.Pagination}, nil
}

// Get fetches a single row by id.
func (e *Executor) Get(ctx context.Context, table, id string) (map[string]any, error) {
	key := "get:" + table + ":" + id
	gen := e.gens.begin(key)

	resp, err := e.client.Execute(ctx, api.Request{Path: recordPath(table, id)})
	if err != nil {
		return nil, err
	}
	if !e.gens.isLatest(key, gen) {
		return nil, ErrSuperseded
	}
	return api.ParseRecord(resp.Body)
}

// Create validates and submits a new row. A validation failure returns
// a *ValidationError and never reaches the network.
func (e *Executor) Create(ctx context.Context, table string, values map[string]any) (map[string]any, error) {
	return e.submit(ctx, table, "", values, ModeCreate)
}

// Update validates and submits changes to an existing row.
func (e *Executor) Update(ctx context.Context, table, id string, values map[string]any) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("crud: update %s: id is required", table)
	}
	return e.submit(ctx, table, id, values, ModeUpdate)
}

// Delete removes a row by id.
func (e *Executor) Delete(ctx context.Context, table, id string) error {
	if id == "" {
		return fmt.Errorf("crud: delete %s: id is required", table)
	}
	_, err := e.client.Execute(ctx, api.Request{
		Method: http.MethodDelete,
		Path:   recordPath(table, id),
	})
	return err
}

func (e *Executor) submit(ctx context.Context, table, id string, values map[string]any, mode Mode) (map[string]any, error) {
	s, err := e.schemas.Resolve(ctx, table)
	if err != nil {
		return nil, err
	}

	coerced := Coerce(s, values)
	if verr := Validate(s, coerced, mode); verr != nil {
		e.logger.Debug().Str("table", table).Int("fields", len(verr.Fields)).Msg("crud: submission rejected")
		return nil, verr
	}

	req := api.Request{Method: http.MethodPost, Path: "/" + table, Body: coerced}
	if mode == ModeUpdate {
		req.Method = http.MethodPut
		req.Path = recordPath(table, id)
	}

	resp, err := e.client.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	return api.ParseRecord(resp.Body)
}

func recordPath(table, id string) string {
	return "/" + table + "/" + url.PathEscape(id)
}
