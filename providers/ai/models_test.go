package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestPartConstructors verifies that the text and image helpers set the
// discriminator and payload consistently.
func TestPartConstructors(t *testing.T) {
	tests := []struct {
		name      string
		part      Part
		wantType  PartType
		wantText  string
		wantMime  string
		wantData  string
		wantImage bool
	}{
		{
			name:     "TextPart sets Type and Text",
			part:     TextPart("hello world"),
			wantType: PartTypeText,
			wantText: "hello world",
		},
		{
			name:      "ImagePart sets Type, MimeType, and Data",
			part:      ImagePart("image/png", "aGVsbG8="),
			wantType:  PartTypeImage,
			wantMime:  "image/png",
			wantData:  "aGVsbG8=",
			wantImage: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.part.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.part.Type, tt.wantType)
			}
			if tt.part.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", tt.part.Text, tt.wantText)
			}
			if tt.part.IsImage() != tt.wantImage {
				t.Fatalf("IsImage() = %v, want %v", tt.part.IsImage(), tt.wantImage)
			}
			if tt.wantImage {
				if tt.part.Image.MimeType != tt.wantMime {
					t.Errorf("MimeType = %q, want %q", tt.part.Image.MimeType, tt.wantMime)
				}
				if tt.part.Image.Data != tt.wantData {
					t.Errorf("Data = %q, want %q", tt.part.Image.Data, tt.wantData)
				}
			}
		})
	}
}

func TestTurn_TextSkipsImages(t *testing.T) {
	turn := Turn{Role: RoleUser, Parts: []Part{
		ImagePart("image/png", "AAAA"),
		TextPart("first"),
		TextPart(""),
		TextPart("second"),
	}}

	if got := turn.Text(); got != "first\nsecond" {
		t.Errorf("Text() = %q, want %q", got, "first\nsecond")
	}
	if got := turn.ImageCount(); got != 1 {
		t.Errorf("ImageCount() = %d, want 1", got)
	}
}

func TestTurn_CloneIsDeep(t *testing.T) {
	original := Turn{Role: RoleUser, Parts: []Part{ImagePart("image/png", "AAAA"), TextPart("hi")}}
	clone := original.Clone()

	clone.Parts[1].Text = "changed"
	clone.Parts[0].Image.Data = "BBBB"

	if original.Parts[1].Text != "hi" {
		t.Errorf("clone shares parts slice with original")
	}
	if original.Parts[0].Image.Data != "AAAA" {
		t.Errorf("clone shares image pointer with original")
	}
}

func TestCloneTurns_NilYieldsEmpty(t *testing.T) {
	out := CloneTurns(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleUser.Valid() || !RoleModel.Valid() {
		t.Fatal("expected user and model to be valid roles")
	}
	if Role("assistant").Valid() {
		t.Fatal("expected assistant to be rejected")
	}
}

func TestProviderError_IsAndAs(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("send: %w", NewProviderError("gemini", ErrorKindServer, 503, "overloaded", cause))

	if !errors.Is(err, ErrProvider) {
		t.Fatal("expected errors.Is(err, ErrProvider)")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected errors.As to find *ProviderError")
	}
	if pe.Kind != ErrorKindServer || pe.StatusCode != 503 {
		t.Errorf("unexpected error fields: %+v", pe)
	}
	if got := pe.Error(); got != "gemini: server (status 503): overloaded" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNewProviderError_ContextErrorsAreNetwork(t *testing.T) {
	pe := NewProviderError("gemini", ErrorKindServer, 0, "", context.DeadlineExceeded)
	if pe.Kind != ErrorKindNetwork {
		t.Errorf("Kind = %q, want %q", pe.Kind, ErrorKindNetwork)
	}
}

func TestAsProviderError(t *testing.T) {
	if AsProviderError("gemini", nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	existing := NewProviderError("gemini", ErrorKindQuota, 429, "slow down", nil)
	if got := AsProviderError("other", existing); got != existing {
		t.Fatal("expected existing ProviderError to be returned as is")
	}

	wrapped := AsProviderError("gemini", errors.New("dial tcp: refused"))
	if wrapped.Kind != ErrorKindNetwork || wrapped.Provider != "gemini" {
		t.Errorf("unexpected wrapped error: %+v", wrapped)
	}
}

func TestProviderFunc(t *testing.T) {
	var p Provider = ProviderFunc(func(_ context.Context, req ChatRequest) (*ChatResponse, error) {
		return &ChatResponse{Content: fmt.Sprintf("%d turns", len(req.Turns))}, nil
	})
	p = p.WithAPIKey("k").WithBaseURL("u").WithHttpClient(nil)

	resp, err := p.SendMessage(context.Background(), ChatRequest{Turns: []Turn{{Role: RoleUser}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "1 turns" {
		t.Errorf("Content = %q", resp.Content)
	}
}
