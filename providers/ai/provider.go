package ai

import (
	"context"
	"net/http"
)

// Provider is the completion collaborator: it receives the full turn list and
// returns one text completion or a *ProviderError.
type Provider interface {
	// SendMessage sends the request and returns the completed response.
	// Every failure (network, auth, quota, safety block, undecodable body)
	// is reported as a *ProviderError, context errors included.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}

// ProviderFunc adapts a plain function to the SendMessage half of Provider.
// It is mostly useful in tests and for wrapping third-party clients.
type ProviderFunc func(ctx context.Context, request ChatRequest) (*ChatResponse, error)

func (f ProviderFunc) SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	return f(ctx, request)
}

func (f ProviderFunc) WithAPIKey(string) Provider           { return f }
func (f ProviderFunc) WithBaseURL(string) Provider          { return f }
func (f ProviderFunc) WithHttpClient(*http.Client) Provider { return f }
