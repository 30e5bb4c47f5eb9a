package format

import (
	"fmt"
	"html"
	"strings"
)

// Mode selects how a reply is rendered.
type Mode string

const (
	// ModePlain renders stripped text with no links.
	ModePlain Mode = "plain"
	// ModeLinked renders escaped text with http(s) and www. links detected.
	ModeLinked Mode = "linked"
)

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePlain, "":
		return ModePlain, nil
	case ModeLinked:
		return ModeLinked, nil
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// Display is a reply ready to be shown to the end user.
type Display struct {
	Mode     Mode      `json:"mode"`
	Segments []Segment `json:"segments"`
}

// FormatForDisplay turns raw completion text into display content.
// Plain mode yields at most one text segment holding StripMarkup(raw).
// Linked mode keeps Markdown links through stripping, escapes the result
// and splits it into text and link segments.
func FormatForDisplay(raw string, mode Mode) Display {
	if mode != ModeLinked {
		d := Display{Mode: ModePlain}
		if text := StripMarkup(raw); text != "" {
			d.Segments = []Segment{{Text: text}}
		}
		return d
	}
	return Display{Mode: ModeLinked, Segments: Linkify(Escape(stripKeepingLinks(raw)))}
}

// Text renders the display as unescaped plain text. A link whose label
// differs from its target is written as "label (target)".
func (d Display) Text() string {
	var b strings.Builder
	for _, seg := range d.Segments {
		text, href := seg.Text, seg.Href
		if d.Mode == ModeLinked {
			text, href = html.UnescapeString(text), html.UnescapeString(href)
		}
		b.WriteString(text)
		if seg.IsLink() && text != href && !strings.HasSuffix(href, "://"+text) {
			b.WriteString(" (" + href + ")")
		}
	}
	return b.String()
}

// HTML renders the display as an HTML fragment. Links open in a new
// browsing context without an opener reference.
func (d Display) HTML() string {
	var b strings.Builder
	for _, seg := range d.Segments {
		text, href := seg.Text, seg.Href
		if d.Mode != ModeLinked {
			text = Escape(text)
		}
		if !seg.IsLink() {
			b.WriteString(text)
			continue
		}
		fmt.Fprintf(&b, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, href, text)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (d Display) String() string {
	return d.Text()
}

// Empty reports whether there is nothing to show.
func (d Display) Empty() bool {
	return len(d.Segments) == 0
}
