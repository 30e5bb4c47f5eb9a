package middleware

import (
	"context"
	"time"

	"github.com/leofalp/chatwidget/core/client"
	"github.com/leofalp/chatwidget/providers/ai"
)

// NewTimeoutMiddleware enforces a per-request deadline on provider calls.
// The context is cancelled once the provider returns or the deadline expires.
// A caller context with a shorter deadline wins as per normal context
// semantics. A non-positive timeout disables the middleware.
func NewTimeoutMiddleware(timeout time.Duration) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}
