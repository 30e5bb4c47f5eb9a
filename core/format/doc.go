// Package format turns raw completion text into display-safe content.
//
// [StripMarkup] removes Markdown and HTML styling while keeping the words,
// [Escape] and [Linkify] turn text into a sequence of plain and link
// [Segment] values, and [FormatForDisplay] combines them for a [Mode].
// Nothing here returns an error: unrecognized syntax is left as literal text.
package format
