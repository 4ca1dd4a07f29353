package sqlite

// Schema is the embedded DDL for the SQLite backend. Every statement is
// idempotent so the schema can be applied on each open.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id             TEXT PRIMARY KEY,
	owner_id       TEXT NOT NULL,
	kind           TEXT NOT NULL,
	key            TEXT NOT NULL,
	value          TEXT NOT NULL,
	confidence     REAL NOT NULL DEFAULT 1.0,
	source_turn    INTEGER NOT NULL,
	last_used_turn INTEGER NOT NULL DEFAULT 0,
	decay_score    REAL NOT NULL DEFAULT 1.0,
	created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(owner_id, kind, key)
);

CREATE INDEX IF NOT EXISTS idx_memories_owner_kind
	ON memories(owner_id, kind);

CREATE INDEX IF NOT EXISTS idx_memories_owner_turn
	ON memories(owner_id, last_used_turn DESC);

CREATE TABLE IF NOT EXISTS memory_usage (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	memory_id       TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	used_at_turn    INTEGER NOT NULL,
	relevance_score REAL,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_memory_usage_memory
	ON memory_usage(memory_id);
`
