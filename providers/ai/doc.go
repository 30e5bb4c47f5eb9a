// Package ai defines the provider-agnostic conversation model shared by the
// store, the formatter and every completion provider.
//
// A conversation is an ordered list of [Turn] values, each attributed to
// [RoleUser] or [RoleModel] and made of [Part] values (text or inline image).
// Completion providers implement [Provider]: they receive a [ChatRequest]
// holding the full turn list and return a [ChatResponse] with a single text
// completion, or a [*ProviderError] describing why the call failed.
package ai
