package conversation

import (
	"errors"
	"fmt"

	"github.com/leofalp/chatwidget/providers/ai"
)

// ErrEmptyTurn is matched by every *EmptyTurnError.
var ErrEmptyTurn = errors.New("conversation: turn has no content")

// EmptyTurnError reports an append that would have produced a turn with no
// parts. It is a caller bug, not a user-facing condition.
type EmptyTurnError struct {
	Role ai.Role
}

func (e *EmptyTurnError) Error() string {
	return fmt.Sprintf("conversation: empty %s turn: text and attachments are both empty", e.Role)
}

func (e *EmptyTurnError) Unwrap() error { return ErrEmptyTurn }
