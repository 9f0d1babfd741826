package observability

import (
	"context"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans created by this package.
const TracerName = "github.com/aretw0/botflow"

// Tracing returns a stage that wraps the rest of the chain in a span.
// Later stages and bodies see the span through c.Context().
func Tracing(tp trace.TracerProvider) middleware.Stage {
	tracer := tp.Tracer(TracerName)
	return middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
		ctx, span := tracer.Start(c.Context(), "botflow.dispatch",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("botflow.conversation_id", c.ConversationID),
				attribute.String("botflow.context_id", c.ID),
				attribute.String("botflow.update_kind", string(c.Update.Kind)),
			),
		)
		defer span.End()

		defer c.BindContext(ctx)()
		err := next(c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}

// TraceHooks returns dispatch hooks that annotate the current span with state and action events.
func TraceHooks() domain.DispatchHooks {
	return domain.DispatchHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			trace.SpanFromContext(ctx).AddEvent("state.enter", trace.WithAttributes(
				attribute.String("botflow.state", e.State),
				attribute.Bool("botflow.state_initial", e.Initial),
			))
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			attrs := []attribute.KeyValue{
				attribute.String("botflow.action", e.Action),
				attribute.Int64("botflow.action_order", int64(e.Order)),
				attribute.Int64("botflow.action_duration_ms", e.Duration.Milliseconds()),
			}
			if e.Err != nil {
				attrs = append(attrs, attribute.String("botflow.action_error", e.Err.Error()))
			}
			trace.SpanFromContext(ctx).AddEvent("action.return", trace.WithAttributes(attrs...))
		},
	}
}
