package observability

import (
	"context"
	"time"
)

// Provider is what the client, memory backends and server receive to report
// submissions, provider calls and history changes. Every component treats a
// nil Provider as "observability off".
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens spans. The returned context carries the span so nested code
// can attach events through SpanFromContext.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one traced operation, such as a submit or an llm request.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	// RecordError marks the span failed. A nil error is ignored.
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Metrics hands out named instruments; asking twice for the same name returns
// the same instrument.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records durations in seconds and sizes in bytes.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key/value pair. Keys come from semconv.go.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Duration(key string, value time.Duration) Attribute { return Attribute{Key: key, Value: value} }

// Error stores the message under the "error" key; nil yields an empty value.
func Error(err error) Attribute {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Attribute{Key: AttrError, Value: msg}
}
