package ai

import "strings"

/*
	##### CONVERSATION MODEL #####
*/

// Role identifies who authored a turn. Gemini only admits "user" and "model"
// inside contents, so those are the only two roles a turn can carry.
type Role string

const (
	RoleUser  Role = "user"  // End-user input (text and/or images)
	RoleModel Role = "model" // Reply produced by the completion provider
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// PartType discriminates the Part tagged union.
type PartType string

const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image"
)

// InlineData is a base64 encoded binary payload with its MIME type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64, standard encoding
}

// Part is the atomic content unit of a turn: either text or an inline image.
// Exactly one of Text or Image is meaningful, selected by Type.
type Part struct {
	Type  PartType    `json:"type"`
	Text  string      `json:"text,omitempty"`
	Image *InlineData `json:"image,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ImagePart builds an image part from an already base64 encoded payload.
func ImagePart(mimeType, data string) Part {
	return Part{Type: PartTypeImage, Image: &InlineData{MimeType: mimeType, Data: data}}
}

// IsImage reports whether the part carries an image payload.
func (p Part) IsImage() bool {
	return p.Type == PartTypeImage && p.Image != nil
}

// Turn is one message of the conversation attributed to a single role.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates the text parts of the turn, in order, separated by newlines.
func (t Turn) Text() string {
	var texts []string
	for _, p := range t.Parts {
		if p.Type == PartTypeText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ImageCount returns the number of image parts in the turn.
func (t Turn) ImageCount() int {
	n := 0
	for _, p := range t.Parts {
		if p.IsImage() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers can't mutate stored history through
// shared slices or image pointers.
func (t Turn) Clone() Turn {
	out := Turn{Role: t.Role}
	if t.Parts == nil {
		return out
	}
	out.Parts = make([]Part, len(t.Parts))
	for i, p := range t.Parts {
		out.Parts[i] = p
		if p.Image != nil {
			img := *p.Image
			out.Parts[i].Image = &img
		}
	}
	return out
}

// CloneTurns deep-copies a slice of turns. A nil input yields an empty, non-nil slice.
func CloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t.Clone()
	}
	return out
}

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest is the payload handed to a completion provider.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Turns            []Turn            `json:"turns"`                       // Full ordered history, pinned system turn first
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
}

type GenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`       // Sampling temperature [0..2]
	TopP            float32 `json:"top_p,omitempty"`             // Nucleus sampling [0..1]
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"` // Optional cap on reply length
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is a single text completion.
type ChatResponse struct {
	Id           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}
