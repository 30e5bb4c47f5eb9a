package format

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is one piece of display output: plain text, or a link when Href
// is set. In linked mode Text and Href hold HTML-escaped text.
type Segment struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

// IsLink reports whether the segment is a link descriptor.
func (s Segment) IsLink() bool {
	return s.Href != ""
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\[\]]+)\]\(([^()\n]*(?:\([^()\n]*\)[^()\n]*)*)\)`)
	bareURLPattern      = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)
)

// Entities produced by Escape for characters that can never be part of a URL.
var urlStops = []string{"&lt;", "&gt;", "&#34;", "&#39;"}

// Escape replaces & < > " ' with HTML entities.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Linkify splits already escaped text into plain and link segments.
// Markdown [label](url) links are resolved first, then bare http(s):// and
// www. tokens in the remaining text; www. targets get an https:// prefix.
// Only http(s) and www targets become links; any other Markdown link is
// reduced to its label, so javascript:, mailto: or relative targets never
// leave raw link syntax behind. Adjacent text is merged and empty segments
// are never emitted.
func Linkify(escaped string) []Segment {
	var out []Segment
	last := 0
	for _, m := range markdownLinkPattern.FindAllStringSubmatchIndex(escaped, -1) {
		out = appendBareLinks(out, escaped[last:m[0]])
		label, target := escaped[m[2]:m[3]], strings.TrimSpace(escaped[m[4]:m[5]])
		if linkable(target) {
			out = appendSegment(out, Segment{Text: label, Href: normalizeHref(target)})
		} else {
			out = appendBareLinks(out, label)
		}
		last = m[1]
	}
	return appendBareLinks(out, escaped[last:])
}

func appendBareLinks(out []Segment, text string) []Segment {
	last := 0
	for _, m := range bareURLPattern.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}

		token := text[start:end]
		for _, stop := range urlStops {
			if i := strings.Index(token, stop); i >= 0 {
				token = token[:i]
			}
		}
		token, _ = splitTrailing(token)
		if !hasHost(token) {
			continue
		}

		out = appendSegment(out, Segment{Text: text[last:start]})
		out = appendSegment(out, Segment{Text: token, Href: normalizeHref(token)})
		last = start + len(token)
	}
	return appendSegment(out, Segment{Text: text[last:]})
}

// hasHost rejects bare scheme or prefix matches such as "https://" alone.
func hasHost(token string) bool {
	lower := strings.ToLower(token)
	for _, prefix := range []string{"https://", "http://", "www."} {
		if strings.HasPrefix(lower, prefix) {
			return len(token) > len(prefix)
		}
	}
	return false
}

// linkable reports whether a Markdown link target may become an anchor.
func linkable(target string) bool {
	if strings.ContainsAny(target, " \t") || !hasHost(target) {
		return false
	}
	for _, stop := range urlStops {
		if strings.Contains(target, stop) {
			return false
		}
	}
	return true
}

func normalizeHref(target string) string {
	if strings.HasPrefix(strings.ToLower(target), "www.") {
		return "https://" + target
	}
	return target
}

func appendSegment(out []Segment, seg Segment) []Segment {
	if seg.Text == "" {
		return out
	}
	if !seg.IsLink() && len(out) > 0 && !out[len(out)-1].IsLink() {
		out[len(out)-1].Text += seg.Text
		return out
	}
	return append(out, seg)
}
