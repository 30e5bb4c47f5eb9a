// Package memory defines the Provider interface for conversation history
// storage. Implementations store [ai.Turn] values for one conversation and
// expose the primitives the conversation store builds its window policy on:
// append, ordered reads, in-place update of the latest turn of a role and
// tail retention.
//
// Two implementations ship with the module:
// [github.com/leofalp/chatwidget/providers/memory/inmemory] for process-local
// sessions and [github.com/leofalp/chatwidget/providers/memory/pgmemory] for
// PostgreSQL persistence.
package memory
