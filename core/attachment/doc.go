// Package attachment loads user supplied images into pending attachments.
//
// A [Loader] enforces the size limit and the image-only policy; the MIME type
// is sniffed from the content and the declared type is only a fallback.
// Attachments become [ai.Part] values when they are merged into the most
// recent user turn.
package attachment
