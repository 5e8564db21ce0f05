package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
const Schema = `
-- Audit records table
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- Timestamps (Unix nanoseconds)
    request_time INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL,

    -- Client
    remote_addr TEXT,
    user_agent TEXT,

    -- Routing
    provider TEXT,
    model TEXT,
    endpoint_host TEXT,
    stream BOOLEAN NOT NULL DEFAULT 1,

    -- Context assembly
    turns INTEGER,
    history BOOLEAN,
    attachment_chars INTEGER,
    truncated BOOLEAN,

    -- Result
    outcome TEXT NOT NULL,
    status INTEGER,
    frames INTEGER,
    error TEXT,
    error_type TEXT,

    -- Latency (nanoseconds)
    first_delta_latency INTEGER,
    duration INTEGER
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_audit_request_time ON audit_records(request_time);
CREATE INDEX IF NOT EXISTS idx_audit_request_id ON audit_records(request_id);
CREATE INDEX IF NOT EXISTS idx_audit_provider ON audit_records(provider);
CREATE INDEX IF NOT EXISTS idx_audit_model ON audit_records(model);
CREATE INDEX IF NOT EXISTS idx_audit_outcome ON audit_records(outcome);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// recordColumns lists the columns in insert and scan order.
const recordColumns = `id, request_id, request_time, recorded_time,
	remote_addr, user_agent,
	provider, model, endpoint_host, stream,
	turns, history, attachment_chars, truncated,
	outcome, status, frames, error, error_type,
	first_delta_latency, duration`
