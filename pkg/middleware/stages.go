package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/rules"
	"github.com/aretw0/botflow/pkg/session"
)

// Logging logs every event after the rest of the chain returns.
func Logging(logger *slog.Logger) Stage {
	return StageFunc(func(c *domain.Context, next Next) error {
		start := time.Now()
		err := next(c)
		attrs := []any{
			"conversation_id", c.ConversationID,
			"context_id", c.ID,
			"kind", c.Update.Kind,
			"duration", time.Since(start),
		}
		if err != nil {
			logger.Error("dispatch failed", append(attrs, "err", err)...)
			return err
		}
		logger.Info("dispatch completed", attrs...)
		return nil
	})
}

// PanicError carries a panic recovered by the Recover stage.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic during dispatch: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover converts a panic in any later stage into a *PanicError.
func Recover() Stage {
	return StageFunc(func(c *domain.Context, next Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return next(c)
	})
}

// Filter continues the chain only when pred matches. Predicate errors propagate.
func Filter(pred rules.Predicate) Stage {
	return StageFunc(func(c *domain.Context, next Next) error {
		ok, err := pred(c)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return next(c)
	})
}

// AllowConversations drops events from conversations outside ids.
func AllowConversations(ids ...string) Stage {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return Filter(func(c *domain.Context) (bool, error) {
		_, ok := allowed[c.ConversationID]
		return ok, nil
	})
}

// Serialize runs the rest of the chain under the conversation's lock.
func Serialize(manager *session.Manager) Stage {
	return StageFunc(func(c *domain.Context, next Next) error {
		return manager.WithLock(c.Context(), c.ConversationID, func(ctx context.Context) error {
			return next(c)
		})
	})
}

// Timeout derives a deadline for the rest of the chain. Bodies observe it through
// c.Context(); nothing is interrupted forcibly.
func Timeout(d time.Duration) Stage {
	return StageFunc(func(c *domain.Context, next Next) error {
		if d <= 0 {
			return next(c)
		}
		ctx, cancel := context.WithTimeout(c.Context(), d)
		defer cancel()
		defer c.BindContext(ctx)()
		return next(c)
	})
}
