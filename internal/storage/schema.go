package storage

const schemaSQL = `
-- One row per traversal run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    start_url TEXT NOT NULL,
    pages_fetched INTEGER NOT NULL DEFAULT 0,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    unique_links INTEGER NOT NULL DEFAULT 0,
    max_depth_reached INTEGER NOT NULL DEFAULT 0,
    started_at DATETIME NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);

-- Pages recorded during traversal runs, including failed attempts
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    url TEXT NOT NULL,
    title TEXT,
    content TEXT,
    depth INTEGER NOT NULL DEFAULT 0,
    links_found INTEGER NOT NULL DEFAULT 0,
    success INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    fetched_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

-- History of standalone fetch and batch operations
CREATE TABLE IF NOT EXISTS fetches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    success INTEGER NOT NULL DEFAULT 0,
    from_mirror INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    content_bytes INTEGER NOT NULL DEFAULT 0,
    fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetches_url ON fetches(url);
CREATE INDEX IF NOT EXISTS idx_fetches_at ON fetches(fetched_at);

-- Key-value metadata (schema version, last run id)
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY NOT NULL,
    value TEXT NOT NULL
);
`
