package api

import (
	"encoding/json"
	"fmt"
)

// Pagination describes the backend's paging envelope.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListEnvelope is the normalized form of a table read. The backend
// answers in several shapes depending on version and endpoint; callers
// only ever see this one.
type ListEnvelope struct {
	Rows       []map[string]any
	Pagination *Pagination // nil when the response carried no paging info
}

// ParseList normalizes a table response body. The accepted shapes are
// tried in a fixed order:
//
//  1. a bare JSON array of rows
//  2. {"data": [...], "pagination": {...}}
//  3. {"records": [...]}
//  4. a single JSON object, wrapped as a one-row list
//
// Anything else is an error. Guessing silently is worse than failing
// here: a mis-shaped body that slips through turns into nonsense rows
// downstream.
func ParseList(body []byte) (*ListEnvelope, error) {
	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err == nil {
		return &ListEnvelope{Rows: bare}, nil
	}

	var wrapped struct {
		Data       []map[string]any `json:"data"`
		Records    []map[string]any `json:"records"`
		Pagination *Pagination      `json:"pagination"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Data != nil {
			return &ListEnvelope{Rows: wrapped.Data, Pagination: wrapped.Pagination}, nil
		}
		if wrapped.Records != nil {
			return &ListEnvelope{Rows: wrapped.Records}, nil
		}
	}

	var single map[string]any
	if err := json.Unmarshal(body, &single); err == nil && len(single) > 0 {
		return &ListEnvelope{Rows: []map[string]any{single}}, nil
	}

	return nil, fmt.Errorf("api: unrecognized list response shape: %s", truncate(body, 120))
}

// ParseRecord extracts a single row from a response that may be a bare
// object or a {"data": {...}} wrapper.
func ParseRecord(body []byte) (map[string]any, error) {
	var wrapped struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var single map[string]any
	if err := json.Unmarshal(body, &single); err == nil {
		return single, nil
	}

	return nil, fmt.Errorf("api: unrecognized record response shape: %s", truncate(body, 120))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
