package format

import (
	"regexp"
	"strconv"
	"strings"
)

type rule struct {
	re      *regexp.Regexp
	replace func(string) string
	literal string
	isLink  bool
}

func (r rule) apply(s string) string {
	if r.replace != nil {
		return r.re.ReplaceAllStringFunc(s, r.replace)
	}
	return r.re.ReplaceAllString(s, r.literal)
}

const fence = "```"

// Order matters: later rules assume earlier ones already collapsed.
var stripRules = []rule{
	{re: regexp.MustCompile("(?s)" + fence + ".*?" + fence), replace: func(m string) string {
		return strings.ReplaceAll(m, fence, "")
	}},
	{re: regexp.MustCompile(`\*\*(.*?)\*\*`), literal: "$1"},
	{re: regexp.MustCompile(`__(.*?)__`), literal: "$1"},
	{re: regexp.MustCompile(`\*(.*?)\*`), literal: "$1"},
	{re: regexp.MustCompile(`_(.*?)_`), literal: "$1"},
	{re: regexp.MustCompile(`~~(.*?)~~`), literal: "$1"},
	{re: regexp.MustCompile("`([^`]+)`"), literal: "$1"},
	{re: regexp.MustCompile(`!\[(.*?)\]\(.*?\)`), literal: "$1"},
	{re: regexp.MustCompile(`\[(.*?)\]\(.*?\)`), literal: "$1", isLink: true},
	{re: regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)},
	{re: regexp.MustCompile(`(?m)^\s{0,3}>\s?`)},
	{re: regexp.MustCompile(`(?m)^\s*[-*+]\s+`)},
	{re: regexp.MustCompile(`(?m)^\s*\d+\.\s+`)},
	{re: regexp.MustCompile(`(?i)</?([a-z][a-z0-9]*)\b[^>]*>`)},
	{re: regexp.MustCompile(`[ \t]{2,}`), literal: " "},
	{re: regexp.MustCompile(`\n{3,}`), literal: "\n\n"},
}

const (
	maskOpen  = '\uE000'
	maskClose = '\uE001'
)

var (
	rawURLPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"'\[\]` + "`" + `\x{E000}\x{E001}]+`)
	maskPattern   = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
	maskRunes     = strings.NewReplacer(string(maskOpen), "", string(maskClose), "")
)

// StripMarkup removes Markdown and HTML styling from raw and returns plain
// prose: emphasis, code and fence markers are unwrapped, image and link
// syntax collapses to its label, heading, quote and list prefixes and tags
// are dropped, and whitespace runs are collapsed before trimming.
//
// Bare URLs are kept verbatim. The result is a fixpoint, so
// StripMarkup(StripMarkup(x)) == StripMarkup(x).
func StripMarkup(raw string) string {
	return stripToFixpoint(raw, false)
}

// stripKeepingLinks applies every rule except the one reducing
// [label](url) to its label.
func stripKeepingLinks(raw string) string {
	return stripToFixpoint(raw, true)
}

func stripToFixpoint(raw string, keepLinks bool) string {
	s := maskRunes.Replace(raw)
	for {
		next := stripPass(s, keepLinks)
		if next == s {
			return s
		}
		s = next
	}
}

// stripPass runs the rule chain once with bare URLs masked, so emphasis
// rules never eat underscores or asterisks inside an address.
func stripPass(s string, keepLinks bool) string {
	var urls []string
	masked := rawURLPattern.ReplaceAllStringFunc(s, func(m string) string {
		url, rest := splitTrailing(m)
		urls = append(urls, url)
		return string(maskOpen) + strconv.Itoa(len(urls)-1) + string(maskClose) + rest
	})

	for _, r := range stripRules {
		if keepLinks && r.isLink {
			continue
		}
		masked = r.apply(masked)
	}
	masked = strings.TrimSpace(masked)

	restored := maskPattern.ReplaceAllStringFunc(masked, func(m string) string {
		i, err := strconv.Atoi(maskPattern.FindStringSubmatch(m)[1])
		if err != nil || i >= len(urls) {
			return ""
		}
		return urls[i]
	})
	return maskRunes.Replace(restored)
}

// splitTrailing separates trailing punctuation that ends a sentence rather
// than the URL. A closing parenthesis stays when it balances one inside.
func splitTrailing(m string) (url, rest string) {
	end := len(m)
	for end > 0 {
		c := m[end-1]
		switch c {
		case '.', ',', ';', ':', '!', '?', '*', '_', '~', ']', '}':
			end--
			continue
		case ')':
			if strings.Count(m[:end], "(") < strings.Count(m[:end], ")") {
				end--
				continue
			}
		}
		break
	}
	return m[:end], m[end:]
}
