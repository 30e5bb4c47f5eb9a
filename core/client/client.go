package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/leofalp/chatwidget/core/attachment"
	"github.com/leofalp/chatwidget/core/conversation"
	"github.com/leofalp/chatwidget/core/format"
	"github.com/leofalp/chatwidget/internal/utils"
	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/observability"
)

// FallbackMessage is shown to the end user in place of a reply when the
// provider call fails.
const FallbackMessage = "⚠️ Something went wrong. Please try again later."

var (
	// ErrNothingToSend is returned when a submission has neither text nor attachments.
	ErrNothingToSend = errors.New("nothing to send")
	// ErrBusy is returned while another submission on the same client is outstanding.
	ErrBusy = errors.New("a submission is already in progress")
)

// Reply is the outcome of a successful submission.
type Reply struct {
	Raw     string         `json:"raw"`     // completion text as returned by the provider
	Text    string         `json:"text"`    // plain text stored as the model turn
	Display format.Display `json:"display"` // content ready to render
	Usage   *ai.Usage      `json:"usage,omitempty"`
}

// Client drives one conversation: it records the user turn, sends the full
// history to the provider and stores the cleaned reply.
type Client struct {
	store       *conversation.Store
	provider    ai.Provider
	formatter   *format.Formatter
	model       string
	observer    observability.Provider
	middlewares []Middleware
	send        SendFunc
	inFlight    atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithFormatter sets the formatter used for replies. Defaults to plain mode.
func WithFormatter(f *format.Formatter) Option {
	return func(c *Client) {
		c.formatter = f
	}
}

// WithModel sets the model name placed on every request.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithObserver enables tracing, metrics and logging for submissions and
// provider calls.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithMiddleware appends middlewares to the provider call chain. The first
// one given is the outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// New creates a Client over an existing store.
func New(store *conversation.Store, provider ai.Provider, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("client: store is required")
	}
	if provider == nil {
		return nil, errors.New("client: provider is required")
	}

	c := &Client{
		store:    store,
		provider: provider,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.formatter == nil {
		c.formatter = format.NewFormatter()
	}
	for i, mw := range c.middlewares {
		if mw == nil {
			return nil, fmt.Errorf("client: middleware %d is nil", i)
		}
	}

	middlewares := c.middlewares
	if c.observer != nil {
		middlewares = append([]Middleware{NewObservabilityMiddleware(c.observer, c.model)}, middlewares...)
	}
	c.send = buildSendChain(provider, middlewares)

	return c, nil
}

// Store returns the conversation store the client writes to.
func (c *Client) Store() *conversation.Store {
	return c.store
}

// Formatter returns the reply formatter.
func (c *Client) Formatter() *format.Formatter {
	return c.formatter
}

// Busy reports whether a submission is outstanding.
func (c *Client) Busy() bool {
	return c.inFlight.Load()
}

// Submit records a user turn made of text and attachments, sends the whole
// history to the provider and, on success, stores the cleaned reply as a
// model turn.
//
// Provider failures are returned as *ai.ProviderError and leave the history
// without a model turn; callers show FallbackMessage. Only one submission
// runs at a time: a concurrent call gets ErrBusy.
func (c *Client) Submit(ctx context.Context, text string, attachments []attachment.Attachment) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return nil, ErrNothingToSend
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.inFlight.Store(false)

	var span observability.Span
	if c.observer != nil {
		ctx, span = c.observer.StartSpan(ctx, observability.SpanClientSubmit,
			observability.Int(observability.AttrAttachmentsCount, len(attachments)),
			observability.String(observability.AttrLinkMode, string(c.formatter.Mode())),
		)
		defer span.End()
	}
	timer := utils.NewStopwatch()

	reply, err := c.submit(ctx, text, attachments)

	if c.observer != nil {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "submit failed")
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		c.observer.Counter(observability.MetricClientSubmitCount).Add(ctx, 1,
			observability.String(observability.AttrStatus, status),
		)
		c.observer.Histogram(observability.MetricClientSubmitDuration).Record(ctx, timer.Seconds())
	}
	return reply, err
}

func (c *Client) submit(ctx context.Context, text string, attachments []attachment.Attachment) (*Reply, error) {
	parts := attachment.Parts(attachments)

	if text != "" {
		if err := c.store.AppendUserTurn(ctx, text, nil); err != nil {
			return nil, fmt.Errorf("recording user turn: %w", err)
		}
		merged, err := c.store.MergeAttachmentsIntoLastUserTurn(ctx, parts)
		if err != nil {
			return nil, fmt.Errorf("merging attachments: %w", err)
		}
		if span := observability.SpanFromContext(ctx); span != nil && len(parts) > 0 {
			span.AddEvent(observability.EventAttachmentsMerged,
				observability.Bool(observability.AttrAttachmentsMerged, merged),
			)
		}
	} else if err := c.store.AppendUserTurn(ctx, "", parts); err != nil {
		return nil, fmt.Errorf("recording user turn: %w", err)
	}

	payload, err := c.store.ProviderPayload(ctx)
	if err != nil {
		return nil, fmt.Errorf("building payload: %w", err)
	}

	response, err := c.send(ctx, ai.ChatRequest{Model: c.model, Turns: payload})
	if err != nil {
		return nil, ai.AsProviderError("provider", err)
	}

	stored := c.formatter.Strip(response.Content)
	if stored == "" {
		stored = strings.TrimSpace(response.Content)
	}
	if stored == "" {
		return nil, ai.NewProviderError("provider", ai.ErrorKindBadResponse, 0, "empty reply", nil)
	}

	display := c.formatter.Format(response.Content)
	if display.Empty() {
		shown := stored
		if display.Mode == format.ModeLinked {
			shown = format.Escape(shown)
		}
		display.Segments = []format.Segment{{Text: shown}}
	}
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventReplyFormatted,
			observability.Int(observability.AttrResponseLength, len(stored)),
		)
	}

	if err := c.store.AppendModelTurn(ctx, stored); err != nil {
		return nil, fmt.Errorf("recording model turn: %w", err)
	}

	return &Reply{
		Raw:     response.Content,
		Text:    stored,
		Display: display,
		Usage:   response.Usage,
	}, nil
}
