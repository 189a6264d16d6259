// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

// SchemaVersion tracks the database schema version for migrations.
const SchemaVersion = 1

// Schema is the SQLite schema for the message history.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sender TEXT NOT NULL DEFAULT '',
    incoming INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL DEFAULT 'text',  -- text, markdown, code
    language TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL,
    sent_at INTEGER NOT NULL            -- Unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
