package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider matches every *ProviderError through errors.Is.
var ErrProvider = errors.New("chatwidget: completion provider failed")

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	ErrorKindNetwork        ErrorKind = "network"         // transport failure, timeout, cancellation
	ErrorKindAuth           ErrorKind = "auth"            // 401/403, missing key
	ErrorKindQuota          ErrorKind = "quota"           // 429 / resource exhausted
	ErrorKindSafety         ErrorKind = "safety"          // prompt or reply blocked by safety filters
	ErrorKindInvalidRequest ErrorKind = "invalid_request" // 400/404
	ErrorKindServer         ErrorKind = "server"          // 5xx
	ErrorKindBadResponse    ErrorKind = "bad_response"    // undecodable or empty body
)

// ProviderError is the single failure type returned by providers. The
// message is for logs; end users get a generic apology instead.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil && e.Message == "" {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrProvider) match any ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// NewProviderError builds a ProviderError. A context error as cause always
// classifies as network regardless of kind.
func NewProviderError(provider string, kind ErrorKind, statusCode int, message string, cause error) *ProviderError {
	if cause != nil && (errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded)) {
		kind = ErrorKindNetwork
	}
	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		Err:        cause,
	}
}

// AsProviderError wraps any non-ProviderError into one so callers only ever
// deal with a single failure type.
func AsProviderError(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return NewProviderError(provider, ErrorKindNetwork, 0, "", err)
}
