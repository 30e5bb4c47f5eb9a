package client

import (
	"context"

	"github.com/leofalp/chatwidget/internal/utils"
	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/observability"
)

// NewObservabilityMiddleware wraps every provider call in an llm.request span
// and records error and token metrics.
//
// The span and the observer are injected into the context before calling
// next, so providers can retrieve them via [observability.SpanFromContext]
// and [observability.ObserverFromContext].
//
// [New] prepends it to the chain when [WithObserver] is given, so it observes
// the final outcome after any timeout middleware.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			model := effectiveModel(request.Model, defaultModel)

			ctx, span := observer.StartSpan(ctx, observability.SpanLLMRequest,
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			)
			defer span.End()
			ctx = observability.ContextWithObserver(ctx, observer)

			observer.Debug(ctx, "llm send",
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			)

			timer := utils.NewStopwatch()
			response, err := next(ctx, request)
			elapsed := timer.Elapsed()

			if err != nil {
				kind := ai.ErrorKindNetwork
				if perr := ai.AsProviderError("", err); perr != nil {
					kind = perr.Kind
				}

				span.RecordError(err)
				span.SetAttributes(observability.String(observability.AttrLLMErrorKind, string(kind)))
				span.SetStatus(observability.StatusError, "llm send failed")

				observer.Error(ctx, "llm send failed",
					observability.Error(err),
					observability.String(observability.AttrLLMErrorKind, string(kind)),
					observability.Duration(observability.AttrDuration, elapsed),
					observability.String(observability.AttrLLMModel, model),
				)
				observer.Counter(observability.MetricClientProviderErrors).Add(ctx, 1,
					observability.String(observability.AttrLLMErrorKind, string(kind)),
					observability.String(observability.AttrLLMModel, model),
				)
				return nil, err
			}

			logAttrs := []observability.Attribute{
				observability.String(observability.AttrLLMModel, model),
				observability.String(observability.AttrLLMFinishReason, response.FinishReason),
				observability.Duration(observability.AttrDuration, elapsed),
				observability.Int(observability.AttrResponseLength, len(response.Content)),
			}
			if response.Usage != nil {
				observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(response.Usage.TotalTokens),
					observability.String(observability.AttrLLMModel, model),
				)
				span.SetAttributes(observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
				logAttrs = append(logAttrs, observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
			}
			if response.Content != "" {
				logAttrs = append(logAttrs, observability.String("response", utils.TruncateString(response.Content, 100)))
			}

			observer.Info(ctx, "llm send completed", logAttrs...)
			span.SetStatus(observability.StatusOK, "success")
			return response, nil
		}
	}
}

// effectiveModel returns the request-level model when set, falling back to the
// client's configured default. Both being empty is valid (provider chooses).
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return defaultModel
}
