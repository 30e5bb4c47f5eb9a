package format

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold and italic", "**bold** and _italic_", "bold and italic"},
		{"underscore bold", "__strong__ words", "strong words"},
		{"strikethrough", "~~old~~ new", "old new"},
		{"inline code", "run `go test` now", "run go test now"},
		{"heading", "## Hello", "Hello"},
		{"blockquote", "> quoted line", "quoted line"},
		{"bullet list", "- one\n- two", "one\ntwo"},
		{"numbered list", "1. first\n2. second", "first\nsecond"},
		{"link collapses to label", "See [docs](https://example.com/a_b).", "See docs."},
		{"link labelled with a URL", "[https://example.com](/local)", "https://example.com"},
		{"image collapses to alt", "![alt text](http://example.com/y.png)", "alt text"},
		{"html tags", "<b>hi</b> there", "hi there"},
		{"spaces collapse", "a    b\t\tc", "a b c"},
		{"blank lines collapse", "a\n\n\n\nb", "a\n\nb"},
		{"trims", "   padded  ", "padded"},
		{"fence markers removed", "```\ncode here\n```", "code here"},
		{"empty", "", ""},
		{"only markup", "****", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripMarkup_KeepsURLsIntact(t *testing.T) {
	tests := []string{
		"Visit https://example.com/some_path_here now",
		"Docs at https://example.com/a*b*c for details",
		"See https://en.wikipedia.org/wiki/Go_(programming_language) please",
		"www.example.com/__init__/x is fine",
	}
	for _, in := range tests {
		if got := StripMarkup(in); got != in {
			t.Errorf("StripMarkup(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestStripMarkup_TrailingPunctuationStillStripped(t *testing.T) {
	got := StripMarkup("**see https://example.com/x_y**")
	if got != "see https://example.com/x_y" {
		t.Errorf("got %q", got)
	}
}

func TestStripMarkup_Idempotent(t *testing.T) {
	inputs := []string{
		"**bold** and _italic_",
		"***triple*** __*mixed*__",
		"_a_b_c_",
		"``` unterminated fence",
		"```\n**inside**\n```",
		"- item\n  - nested\n\n\n\n1. x",
		"> > double quote",
		"<div><p>para</p></div>",
		"[[nested](https://a.com)](https://b.com)",
		"plain https://example.com/a_b_c. end",
		"\uE0000\uE001 stray mask",
		"text with (parens) and [brackets]",
		"   ### spaced heading   ",
		"`code` ~~strike~~ ![img](x)",
	}
	for _, in := range inputs {
		once := StripMarkup(in)
		if twice := StripMarkup(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.ContainsAny(once, "\uE000\uE001") {
			t.Errorf("mask runes leaked for %q: %q", in, once)
		}
	}
}

func TestSplitTrailing(t *testing.T) {
	tests := []struct {
		in, url, rest string
	}{
		{"https://a.com/x.", "https://a.com/x", "."},
		{"https://a.com/x),", "https://a.com/x", "),"},
		{"https://a.com/Go_(lang)", "https://a.com/Go_(lang)", ""},
		{"https://a.com/x**", "https://a.com/x", "**"},
		{"https://a.com/x", "https://a.com/x", ""},
	}
	for _, tt := range tests {
		url, rest := splitTrailing(tt.in)
		if url != tt.url || rest != tt.rest {
			t.Errorf("splitTrailing(%q) = (%q, %q), want (%q, %q)", tt.in, url, rest, tt.url, tt.rest)
		}
	}
}
