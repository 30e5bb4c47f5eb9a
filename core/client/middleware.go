package client

import (
	"context"

	"github.com/leofalp/chatwidget/providers/ai"
)

// SendFunc sends a chat request to the completion provider and returns the
// completed response. It is the base unit threaded through the middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware intercepts provider calls. Each Middleware receives the next
// SendFunc in the chain and returns a new SendFunc that wraps it. The first
// middleware passed to WithMiddleware is the outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// buildSendChain constructs the linear middleware chain. The base function
// calls the provider directly; middlewares are applied in reverse so that
// middlewares[0] is the first to see an incoming request.
func buildSendChain(provider ai.Provider, middlewares []Middleware) SendFunc {
	var chain SendFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i](chain)
	}

	return chain
}
