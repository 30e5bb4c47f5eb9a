// Package middleware provides built-in middleware for the chat client. Each
// constructor returns a [client.Middleware] ready to be passed to
// [client.WithMiddleware].
//
//   - [NewTimeoutMiddleware]: adds a per-request deadline via context.WithTimeout,
//     so a stalled provider call does not block the widget indefinitely.
//
//   - [NewLoggingMiddleware]: emits structured slog entries before and after
//     every provider call, with three verbosity levels (Minimal, Standard, Verbose).
//
// No retry middleware is provided: a failed provider call is shown
// to the user as a fallback message and the user decides whether to resend.
//
// Usage:
//
//	c, err := client.New(store, provider,
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(60*time.Second),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Middlewares execute outermost-first: the timeout above covers the logging
// middleware and the provider call.
package middleware
