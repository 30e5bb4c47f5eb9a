package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/memory"
	"github.com/leofalp/chatwidget/providers/observability"
)

// ArrayMemory is a simple, concurrency-safe in-memory turn store.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
type ArrayMemory struct {
	mu    sync.RWMutex
	turns []ai.Turn
}

// New returns a new, empty [ArrayMemory] ready for immediate use.
func New() *ArrayMemory {
	return &ArrayMemory{
		turns: []ai.Turn{},
	}
}

// Ensure ArrayMemory implements memory.Provider at compile time.
var _ memory.Provider = (*ArrayMemory)(nil)

// AppendTurn stores a deep copy of turn at the end of the history.
// When an observability span is present in ctx, an event is recorded with the
// turn role and part count, and the running total is set as a span attribute.
func (m *ArrayMemory) AppendTurn(ctx context.Context, turn ai.Turn) error {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryTurnRole, string(turn.Role)),
			observability.Int(observability.AttrMemoryTurnParts, len(turn.Parts)),
		)
	}

	m.mu.Lock()
	m.turns = append(m.turns, turn.Clone())
	total := len(m.turns)
	m.mu.Unlock()

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrMemoryTotalTurns, total))
	}
	return nil
}

// Count returns the number of turns stored. The returned error is always nil.
func (m *ArrayMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	n := len(m.turns)
	m.mu.RUnlock()
	return n, nil
}

// AllTurns returns a deep copy of all turns to avoid external mutation of internal state.
func (m *ArrayMemory) AllTurns(_ context.Context) ([]ai.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ai.CloneTurns(m.turns), nil
}

// LastTurns returns up to the last n turns as a new, independent slice.
// If n exceeds the total number of stored turns, all turns are returned.
// Returns an empty, non-nil slice when n is zero or negative.
func (m *ArrayMemory) LastTurns(_ context.Context, n int) ([]ai.Turn, error) {
	if n <= 0 {
		return []ai.Turn{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.turns) {
		n = len(m.turns)
	}
	return ai.CloneTurns(m.turns[len(m.turns)-n:]), nil
}

// UpdateLastByRole scans from the end for the most recent turn with role and
// applies update to a copy, which then replaces the stored turn.
func (m *ArrayMemory) UpdateLastByRole(ctx context.Context, role ai.Role, update func(*ai.Turn)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role != role {
			continue
		}
		updated := m.turns[i].Clone()
		update(&updated)
		updated.Role = role
		m.turns[i] = updated.Clone()

		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventMemoryUpdate,
				observability.String(observability.AttrMemoryTurnRole, string(role)),
				observability.Int(observability.AttrMemoryTurnParts, len(updated.Parts)),
			)
		}
		return true, nil
	}
	return false, nil
}

// KeepLast drops the oldest turns so that at most n remain.
func (m *ArrayMemory) KeepLast(ctx context.Context, n int) (int, error) {
	if n < 0 {
		n = 0
	}

	m.mu.Lock()
	removed := len(m.turns) - n
	if removed <= 0 {
		m.mu.Unlock()
		return 0, nil
	}
	kept := make([]ai.Turn, n)
	copy(kept, m.turns[removed:])
	m.turns = kept
	m.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryTrim,
			observability.Int(observability.AttrMemoryEvicted, removed),
			observability.Int(observability.AttrMemoryTotalTurns, n),
		)
	}
	return removed, nil
}

// ClearTurns removes all turns while retaining the underlying slice capacity.
func (m *ArrayMemory) ClearTurns(ctx context.Context) error {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear)
	}

	m.mu.Lock()
	m.turns = m.turns[:0]
	m.mu.Unlock()
	return nil
}
