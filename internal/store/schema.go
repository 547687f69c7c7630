package store

// SQL schema constants for all client tables.

const schemaResponseCache = `
CREATE TABLE IF NOT EXISTS response_cache (
    key TEXT PRIMARY KEY,
    family TEXT NOT NULL,
    method TEXT NOT NULL,
    path TEXT NOT NULL,
    payload BLOB NOT NULL,
    status_code INTEGER NOT NULL DEFAULT 200,
    created_at TEXT NOT NULL,
    expires_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_response_cache_family ON response_cache(family);
CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at);
`

const schemaSessionKV = `
CREATE TABLE IF NOT EXISTS session_kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

const schemaMigrations = `
CREATE TABLE IF NOT EXISTS migrations (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// allSchemas is the ordered list of schema DDL statements that form
// the initial (version-1) database layout.
var allSchemas = []string{
	schemaResponseCache,
	schemaSessionKV,
	schemaMigrations,
}
