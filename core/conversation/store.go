package conversation

import (
	"context"
	"fmt"

	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/memory"
)

// DefaultMaxTurns is the number of user/model exchanges kept in the window.
const DefaultMaxTurns = 12

// Store maintains the ordered turns of one conversation.
type Store struct {
	backend  memory.Provider
	maxTurns int
	system   *ai.Turn
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTurns sets the number of exchanges kept; the window holds twice as
// many turns. Values below 1 keep the default.
func WithMaxTurns(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.maxTurns = n
		}
	}
}

// WithSystemPrompt pins a turn carrying prompt ahead of the window. The text
// is passed through unmodified; an empty prompt pins nothing.
func WithSystemPrompt(prompt string) Option {
	return func(s *Store) {
		if prompt == "" {
			s.system = nil
			return
		}
		s.system = &ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart(prompt)}}
	}
}

// New creates a Store over backend.
func New(backend memory.Provider, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxTurns returns the configured number of exchanges.
func (s *Store) MaxTurns() int {
	return s.maxTurns
}

// Window returns the maximum number of non-pinned turns retained.
func (s *Store) Window() int {
	return 2 * s.maxTurns
}

// SystemTurn returns a copy of the pinned turn, if any.
func (s *Store) SystemTurn() (ai.Turn, bool) {
	if s.system == nil {
		return ai.Turn{}, false
	}
	return s.system.Clone(), true
}

// AppendUserTurn appends a user turn made of the image attachments followed
// by text, when text is non-empty, and then trims the history. Non-image
// parts in attachments are ignored. When nothing remains it returns an
// *EmptyTurnError and leaves the history untouched.
func (s *Store) AppendUserTurn(ctx context.Context, text string, attachments []ai.Part) error {
	parts := imageParts(attachments)
	if text != "" {
		parts = append(parts, ai.TextPart(text))
	}
	if len(parts) == 0 {
		return &EmptyTurnError{Role: ai.RoleUser}
	}

	if err := s.backend.AppendTurn(ctx, ai.Turn{Role: ai.RoleUser, Parts: parts}); err != nil {
		return fmt.Errorf("append user turn: %w", err)
	}
	_, err := s.Trim(ctx)
	return err
}

// MergeAttachmentsIntoLastUserTurn prepends the image attachments to the most
// recent user turn, keeping the order of both the attachments and the
// existing parts. With no attachments, or no user turn yet, it is a silent
// no-op: the attachments are dropped and false is returned. The pinned turn
// is never a merge target.
func (s *Store) MergeAttachmentsIntoLastUserTurn(ctx context.Context, attachments []ai.Part) (bool, error) {
	images := imageParts(attachments)
	if len(images) == 0 {
		return false, nil
	}

	merged, err := s.backend.UpdateLastByRole(ctx, ai.RoleUser, func(turn *ai.Turn) {
		parts := make([]ai.Part, 0, len(images)+len(turn.Parts))
		parts = append(parts, images...)
		turn.Parts = append(parts, turn.Parts...)
	})
	if err != nil {
		return false, fmt.Errorf("merge attachments: %w", err)
	}
	return merged, nil
}

// AppendModelTurn appends a model turn with a single text part and trims.
func (s *Store) AppendModelTurn(ctx context.Context, text string) error {
	if text == "" {
		return &EmptyTurnError{Role: ai.RoleModel}
	}
	turn := ai.Turn{Role: ai.RoleModel, Parts: []ai.Part{ai.TextPart(text)}}
	if err := s.backend.AppendTurn(ctx, turn); err != nil {
		return fmt.Errorf("append model turn: %w", err)
	}
	_, err := s.Trim(ctx)
	return err
}

// Trim evicts the oldest non-pinned turns until at most Window remain and
// returns how many were removed. Kept turns never change relative order.
func (s *Store) Trim(ctx context.Context) (int, error) {
	removed, err := s.backend.KeepLast(ctx, s.Window())
	if err != nil {
		return 0, fmt.Errorf("trim history: %w", err)
	}
	return removed, nil
}

// ProviderPayload returns the turn sequence to hand to the completion
// provider: the pinned turn, if any, followed by the retained turns. The
// result is a deep copy.
func (s *Store) ProviderPayload(ctx context.Context) ([]ai.Turn, error) {
	turns, err := s.backend.AllTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if s.system == nil {
		return ai.CloneTurns(turns), nil
	}
	payload := make([]ai.Turn, 0, len(turns)+1)
	payload = append(payload, s.system.Clone())
	return append(payload, ai.CloneTurns(turns)...), nil
}

// Turns returns the retained turns without the pinned one.
func (s *Store) Turns(ctx context.Context) ([]ai.Turn, error) {
	turns, err := s.backend.AllTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return turns, nil
}

// Len returns the payload length: retained turns plus the pinned turn.
func (s *Store) Len(ctx context.Context) (int, error) {
	n, err := s.backend.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	if s.system != nil {
		n++
	}
	return n, nil
}

// Reset drops every non-pinned turn.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.backend.ClearTurns(ctx); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}

func imageParts(parts []ai.Part) []ai.Part {
	out := make([]ai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsImage() {
			img := *p.Image
			out = append(out, ai.Part{Type: ai.PartTypeImage, Image: &img})
		}
	}
	return out
}
