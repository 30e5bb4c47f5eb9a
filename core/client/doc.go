// Package client orchestrates one chat conversation: it records user turns
// with their attachments in a [conversation.Store], sends the full history
// through a middleware chain to an [ai.Provider], and stores the cleaned
// reply.
//
// The primary entry point is [New], configured with functional options such
// as [WithFormatter], [WithObserver] and [WithMiddleware]. [Client.Submit]
// is the single operation; provider failures surface as *ai.ProviderError
// and are never retried here.
package client
