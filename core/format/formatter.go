package format

import (
	"regexp"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var blockHTMLPattern = regexp.MustCompile(`(?i)<(p|div|ul|ol|li|br|h[1-6]|table|pre|blockquote)\b`)

// Formatter applies a fixed display mode and optional HTML pre-conversion.
type Formatter struct {
	mode        Mode
	convertHTML bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithMode sets the display mode. Unknown modes fall back to plain.
func WithMode(mode Mode) Option {
	return func(f *Formatter) {
		if mode == ModeLinked {
			f.mode = ModeLinked
			return
		}
		f.mode = ModePlain
	}
}

// WithHTMLConversion converts replies containing block-level HTML to
// Markdown before stripping, so list items and paragraphs keep their
// line structure instead of being flattened by tag removal.
func WithHTMLConversion(enabled bool) Option {
	return func(f *Formatter) {
		f.convertHTML = enabled
	}
}

// NewFormatter creates a plain-mode formatter unless options say otherwise.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{mode: ModePlain}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Mode returns the configured display mode.
func (f *Formatter) Mode() Mode {
	return f.mode
}

// Strip returns the plain text form of raw, used for storing model turns.
func (f *Formatter) Strip(raw string) string {
	return StripMarkup(f.prepare(raw))
}

// Format returns display content for raw in the configured mode.
func (f *Formatter) Format(raw string) Display {
	return FormatForDisplay(f.prepare(raw), f.mode)
}

func (f *Formatter) prepare(raw string) string {
	if !f.convertHTML || !blockHTMLPattern.MatchString(raw) {
		return raw
	}
	md, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return raw
	}
	return md
}
