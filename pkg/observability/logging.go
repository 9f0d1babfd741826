package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/botflow/pkg/domain"
)

// LoggingHooks returns dispatch hooks that log state and action events at debug level.
func LoggingHooks(logger *slog.Logger) domain.DispatchHooks {
	return domain.DispatchHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_enter",
				"conversation_id", e.ConversationID,
				"state", e.State,
				"initial", e.Initial,
			)
		},
		OnActionExecute: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action_execute",
				"conversation_id", e.ConversationID,
				"action", e.Action,
			)
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			attrs := []any{
				"conversation_id", e.ConversationID,
				"action", e.Action,
				"duration", e.Duration,
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.DebugContext(ctx, "action_return", attrs...)
		},
	}
}
