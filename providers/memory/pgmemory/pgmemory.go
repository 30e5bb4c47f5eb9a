package pgmemory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/memory"
	"github.com/leofalp/chatwidget/providers/observability"
)

// defaultTableName is the PostgreSQL table used when no custom name is provided.
const defaultTableName = "chatwidget_turns"

// Querier abstracts the pgx query methods needed by PgMemory.
// Both *pgxpool.Pool and pgx.Tx satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxQuerier extends Querier with transaction support. *pgxpool.Pool satisfies
// this interface but pgx.Tx does not. UpdateLastByRole runs inside a
// transaction when the db is a TxQuerier and falls back to a non-atomic
// read-then-write otherwise.
type TxQuerier interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgMemory implements [memory.Provider] with PostgreSQL persistence.
// Each instance is scoped to a single session.
type PgMemory struct {
	db        Querier
	sessionID string
	tableName string
	indexName string
}

// Compile-time check: PgMemory must implement memory.Provider.
var _ memory.Provider = (*PgMemory)(nil)

// Option configures optional PgMemory behavior.
type Option func(*PgMemory)

// WithTableName overrides the default table name. The name is sanitized via
// pgx.Identifier since it is interpolated into queries.
func WithTableName(name string) Option {
	return func(m *PgMemory) {
		m.tableName = pgx.Identifier{name}.Sanitize()
		m.indexName = pgx.Identifier{"idx_" + name + "_session_seq"}.Sanitize()
	}
}

// New creates a PostgreSQL-backed memory provider for the given session.
// The db parameter is typically a *pgxpool.Pool.
func New(db Querier, sessionID string, opts ...Option) *PgMemory {
	m := &PgMemory{
		db:        db,
		sessionID: sessionID,
		tableName: defaultTableName,
		indexName: "idx_" + defaultTableName + "_session_seq",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SessionID returns the session this memory is scoped to.
func (m *PgMemory) SessionID() string {
	return m.sessionID
}

// AppendTurn inserts turn as a new row.
func (m *PgMemory) AppendTurn(ctx context.Context, turn ai.Turn) error {
	partsJSON, err := marshalParts(turn.Parts)
	if err != nil {
		return fmt.Errorf("pgmemory: encode parts: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (session_id, role, parts) VALUES ($1, $2, $3)`, m.tableName)
	if _, err := m.db.Exec(ctx, query, m.sessionID, string(turn.Role), partsJSON); err != nil {
		return fmt.Errorf("pgmemory: append turn: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryTurnRole, string(turn.Role)),
			observability.Int(observability.AttrMemoryTurnParts, len(turn.Parts)),
		)
	}
	return nil
}

// Count returns the number of turns stored for this session.
func (m *PgMemory) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1`, m.tableName)

	var count int
	if err := m.db.QueryRow(ctx, query, m.sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgmemory: count: %w", err)
	}
	return count, nil
}

// AllTurns returns all turns for this session ordered by seq.
func (m *PgMemory) AllTurns(ctx context.Context) ([]ai.Turn, error) {
	query := fmt.Sprintf(`SELECT role, parts FROM %s WHERE session_id = $1 ORDER BY seq ASC`, m.tableName)

	rows, err := m.db.Query(ctx, query, m.sessionID)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: all turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

// LastTurns fetches the n newest rows and re-orders them oldest first.
func (m *PgMemory) LastTurns(ctx context.Context, n int) ([]ai.Turn, error) {
	if n <= 0 {
		return []ai.Turn{}, nil
	}

	query := fmt.Sprintf(`SELECT role, parts FROM (
			SELECT seq, role, parts FROM %s WHERE session_id = $1 ORDER BY seq DESC LIMIT $2
		) sub ORDER BY sub.seq ASC`, m.tableName)

	rows, err := m.db.Query(ctx, query, m.sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: last turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

// UpdateLastByRole locks the newest row with the given role, applies update
// to its decoded turn and writes the parts back. Rows are matched by seq so
// the turn keeps its position.
func (m *PgMemory) UpdateLastByRole(ctx context.Context, role ai.Role, update func(*ai.Turn)) (bool, error) {
	txDB, ok := m.db.(TxQuerier)
	if !ok {
		return m.updateLast(ctx, m.db, role, update, "")
	}

	tx, err := txDB.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("pgmemory: update begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	found, err := m.updateLast(ctx, tx, role, update, " FOR UPDATE")
	if err != nil || !found {
		return found, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("pgmemory: update commit tx: %w", err)
	}
	return true, nil
}

func (m *PgMemory) updateLast(ctx context.Context, db Querier, role ai.Role, update func(*ai.Turn), lock string) (bool, error) {
	selectQuery := fmt.Sprintf(`SELECT seq, parts FROM %s WHERE session_id = $1 AND role = $2 ORDER BY seq DESC LIMIT 1%s`,
		m.tableName, lock)

	var seq int64
	var partsJSON []byte
	err := db.QueryRow(ctx, selectQuery, m.sessionID, string(role)).Scan(&seq, &partsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pgmemory: update select: %w", err)
	}

	turn, err := buildTurn(string(role), partsJSON)
	if err != nil {
		return false, err
	}
	update(&turn)

	newParts, err := marshalParts(turn.Parts)
	if err != nil {
		return false, fmt.Errorf("pgmemory: encode parts: %w", err)
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET parts = $1 WHERE seq = $2`, m.tableName)
	if _, err := db.Exec(ctx, updateQuery, newParts, seq); err != nil {
		return false, fmt.Errorf("pgmemory: update parts: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryUpdate,
			observability.String(observability.AttrMemoryTurnRole, string(role)),
			observability.Int(observability.AttrMemoryTurnParts, len(turn.Parts)),
		)
	}
	return true, nil
}

// KeepLast deletes every row of the session outside the n newest.
func (m *PgMemory) KeepLast(ctx context.Context, n int) (int, error) {
	if n < 0 {
		n = 0
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1 AND seq NOT IN (
			SELECT seq FROM %s WHERE session_id = $1 ORDER BY seq DESC LIMIT $2
		)`, m.tableName, m.tableName)

	tag, err := m.db.Exec(ctx, query, m.sessionID, n)
	if err != nil {
		return 0, fmt.Errorf("pgmemory: keep last: %w", err)
	}

	removed := int(tag.RowsAffected())
	if span := observability.SpanFromContext(ctx); span != nil && removed > 0 {
		span.AddEvent(observability.EventMemoryTrim,
			observability.Int(observability.AttrMemoryEvicted, removed),
		)
	}
	return removed, nil
}

// ClearTurns deletes all turns for this session.
func (m *PgMemory) ClearTurns(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, m.tableName)
	if _, err := m.db.Exec(ctx, query, m.sessionID); err != nil {
		return fmt.Errorf("pgmemory: clear turns: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear)
	}
	return nil
}

// scanTurns iterates over pgx.Rows and returns the decoded turns.
// Returns an empty non-nil slice when no rows are present.
func scanTurns(rows pgx.Rows) ([]ai.Turn, error) {
	turns := []ai.Turn{}

	for rows.Next() {
		var role string
		var partsJSON []byte
		if err := rows.Scan(&role, &partsJSON); err != nil {
			return nil, fmt.Errorf("pgmemory: scan row: %w", err)
		}
		turn, err := buildTurn(role, partsJSON)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmemory: iterate rows: %w", err)
	}
	return turns, nil
}

// buildTurn assembles an ai.Turn from the raw column values.
func buildTurn(role string, partsJSON []byte) (ai.Turn, error) {
	turn := ai.Turn{Role: ai.Role(role), Parts: []ai.Part{}}
	if len(partsJSON) == 0 {
		return turn, nil
	}
	if err := json.Unmarshal(partsJSON, &turn.Parts); err != nil {
		return ai.Turn{}, fmt.Errorf("pgmemory: decode parts: %w", err)
	}
	return turn, nil
}

// marshalParts encodes parts for the JSONB column. A nil slice is stored as
// an empty array since the column is NOT NULL.
func marshalParts(parts []ai.Part) ([]byte, error) {
	if parts == nil {
		parts = []ai.Part{}
	}
	return json.Marshal(parts)
}
