// Package conversation owns the ordered turn history of one chat session.
//
// A [Store] appends user and model turns, merges pending image attachments
// into the most recent user turn and keeps the history inside a sliding
// window of 2×MaxTurns turns. An optional system turn is pinned ahead of the
// window: it is never evicted and always leads the provider payload.
//
// Storage is delegated to a [memory.Provider], so the same window policy runs
// over process memory or PostgreSQL. The Store itself holds no lock; callers
// must serialize submissions, which [github.com/leofalp/chatwidget/core/client]
// does for them.
package conversation
