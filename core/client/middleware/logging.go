package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/chatwidget/core/client"
	"github.com/leofalp/chatwidget/internal/utils"
	"github.com/leofalp/chatwidget/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs only the model name, total duration, and token counts.
	LogLevelMinimal LogLevel = iota
	// LogLevelStandard adds the turn and image counts and the finish reason.
	LogLevelStandard
	// LogLevelVerbose adds the latest user text and the reply text, each
	// truncated to 500 characters.
	//
	// WARNING: DO NOT use LogLevelVerbose in production. It logs what end
	// users typed, which may contain personal data.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// ParseLogLevel maps "minimal", "standard" and "verbose" to a LogLevel.
// Anything else yields LogLevelStandard.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "minimal":
		return LogLevelMinimal
	case "verbose":
		return LogLevelVerbose
	default:
		return LogLevelStandard
	}
}

// NewLoggingMiddleware emits structured slog entries before and after every
// provider call. The logger must not be nil; use slog.Default() if you have
// not configured one.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", buildRequestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				attrs := []any{
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				}
				if perr := ai.AsProviderError("", err); perr != nil {
					attrs = append(attrs, slog.String("error_kind", string(perr.Kind)))
				}
				logger.ErrorContext(ctx, "llm send failed", attrs...)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", buildResponseAttrs(response, elapsed, level)...)
			return response, nil
		}
	}
}

// buildRequestAttrs returns slog attributes for an outgoing chat request,
// expanding detail according to the requested verbosity level.
func buildRequestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{
		slog.String("model", request.Model),
	}

	if level >= LogLevelStandard {
		images := 0
		for _, t := range request.Turns {
			images += t.ImageCount()
		}
		attrs = append(attrs,
			slog.Int("turn_count", len(request.Turns)),
			slog.Int("image_count", images),
		)
	}

	if level >= LogLevelVerbose && len(request.Turns) > 0 {
		last := request.Turns[len(request.Turns)-1]
		attrs = append(attrs,
			slog.String("last_turn_role", string(last.Role)),
			slog.String("last_turn_text", utils.TruncateString(last.Text(), truncateLen)),
		)
	}

	return attrs
}

// buildResponseAttrs returns slog attributes for a completed chat response,
// expanding detail according to the requested verbosity level.
func buildResponseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}

	if level >= LogLevelStandard && response.FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
	}

	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs,
			slog.String("response_content", utils.TruncateString(response.Content, truncateLen)),
		)
	}

	return attrs
}
