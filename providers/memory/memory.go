package memory

import (
	"context"

	"github.com/leofalp/chatwidget/providers/ai"
)

// Provider stores the ordered turns of a single conversation.
//
// Implementations must hand out copies: mutating a turn returned by a read
// never changes stored history. Windowing policy (how many turns to keep,
// which turn is pinned) belongs to the caller; providers only offer the
// primitives.
type Provider interface {
	// AppendTurn stores turn at the end of the history.
	AppendTurn(ctx context.Context, turn ai.Turn) error

	// AllTurns returns every stored turn, oldest first. Never nil.
	AllTurns(ctx context.Context) ([]ai.Turn, error)

	// LastTurns returns up to n most recent turns, oldest first. Never nil.
	LastTurns(ctx context.Context, n int) ([]ai.Turn, error)

	// Count returns the number of stored turns.
	Count(ctx context.Context) (int, error)

	// UpdateLastByRole applies update to the most recent turn with the given
	// role and persists the result. It reports false, without calling update,
	// when no such turn exists. The turn keeps its role and position.
	UpdateLastByRole(ctx context.Context, role ai.Role, update func(*ai.Turn)) (bool, error)

	// KeepLast deletes all but the n most recent turns and returns how many
	// were removed. n <= 0 removes everything.
	KeepLast(ctx context.Context, n int) (int, error)

	// ClearTurns removes every stored turn.
	ClearTurns(ctx context.Context) error
}
