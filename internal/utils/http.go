package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/leofalp/chatwidget/providers/observability"
)

// ErrDecodeResponse is wrapped when a 2xx body is not valid JSON for the target type.
var ErrDecodeResponse = errors.New("error unmarshaling response body")

// HTTPError is returned by DoPostSync for any non-2xx response. The raw body
// is kept so providers can decode their own error envelope.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(string(e.Body), 200))
}

// HeaderOption mutates the outgoing request headers.
type HeaderOption func(http.Header)

// WithHeader sets a single header on the request.
func WithHeader(key, value string) HeaderOption {
	return func(h http.Header) {
		if value != "" {
			h.Set(key, value)
		}
	}
}

// DoPostSync performs a synchronous HTTP POST with a JSON body and decodes the
// JSON response into OutputStruct.
//
// Error handling:
//   - transport failures and context errors are wrapped and returned as is
//   - non-2xx statuses return *HTTPError carrying the raw body
//   - decode failures include a truncated preview of the body
//
// The response body is always closed; close errors are logged, never returned.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		h(req.Header)
	}

	watch := NewStopwatch()
	res, err := httpClient.Do(req)
	elapsed := watch.Elapsed()

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", elapsed),
			)
		}
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
		}
	}(res.Body)

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", elapsed),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, &HTTPError{StatusCode: res.StatusCode, Body: respBody}
	}

	var out OutputStruct
	if err = json.Unmarshal(respBody, &out); err != nil {
		return res, nil, fmt.Errorf("%w (status %d): %v\nResponse preview: %s",
			ErrDecodeResponse, res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}

	return res, &out, nil
}
