package database

const schema = `
CREATE TABLE IF NOT EXISTS media_items (
    id TEXT PRIMARY KEY,
    mime_type TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    path TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS serving_urls (
    file_path TEXT PRIMARY KEY,
    token TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_media_items_created ON media_items (created_at);
`
