package pgmemory

import (
	"context"
	"fmt"
)

// createTableSQL creates the turns table. The seq column (BIGSERIAL) gives
// monotonic ordering within a session and doubles as the row key for
// in-place updates. parts holds the JSON encoded []ai.Part.
const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    seq         BIGSERIAL PRIMARY KEY,
    session_id  TEXT NOT NULL,
    role        TEXT NOT NULL,
    parts       JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// createSessionSeqIndexSQL creates the primary lookup index: all turns
// for a session ordered by insertion sequence.
const createSessionSeqIndexSQL = `CREATE INDEX IF NOT EXISTS %s
    ON %s (session_id, seq)`

// EnsureSchema creates the turns table and its index if they do not already
// exist. Production deployments should manage schema changes with migration
// tooling instead.
func (m *PgMemory) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, fmt.Sprintf(createTableSQL, m.tableName)); err != nil {
		return fmt.Errorf("pgmemory: create table: %w", err)
	}

	if _, err := m.db.Exec(ctx, fmt.Sprintf(createSessionSeqIndexSQL, m.indexName, m.tableName)); err != nil {
		return fmt.Errorf("pgmemory: create session_seq index: %w", err)
	}

	return nil
}
