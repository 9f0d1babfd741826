package botflow

import (
	"context"
	"log/slog"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

// LogReporter logs escaped dispatch errors.
func LogReporter(logger *slog.Logger) ports.ErrorReporter {
	return ports.ErrorReporterFunc(func(ctx context.Context, update domain.Update, err error) {
		logger.ErrorContext(ctx, "dispatch error",
			"update_id", update.ID,
			"conversation_id", update.ConversationID,
			"err", err,
		)
	})
}
