package postgres

// Schema is the embedded DDL for the PostgreSQL backend. All statements are
// idempotent so the schema can be applied on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id             VARCHAR(50) PRIMARY KEY,
	owner_id       VARCHAR(255) NOT NULL,
	kind           VARCHAR(50) NOT NULL,
	key            VARCHAR(255) NOT NULL,
	value          TEXT NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	source_turn    INTEGER NOT NULL,
	last_used_turn INTEGER NOT NULL DEFAULT 0,
	decay_score    DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE(owner_id, kind, key)
);

CREATE INDEX IF NOT EXISTS idx_memories_owner_kind
	ON memories(owner_id, kind);

CREATE INDEX IF NOT EXISTS idx_memories_owner_turn
	ON memories(owner_id, last_used_turn DESC);

CREATE TABLE IF NOT EXISTS memory_usage (
	id              SERIAL PRIMARY KEY,
	memory_id       VARCHAR(50) NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	used_at_turn    INTEGER NOT NULL,
	relevance_score DOUBLE PRECISION,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_memory_usage_memory
	ON memory_usage(memory_id);
`
