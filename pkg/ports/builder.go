package ports

import (
	"context"
	"fmt"

	"github.com/aretw0/botflow/pkg/domain"
)

// ContextBuilder converts an inbound update into the per-event Context.
type ContextBuilder interface {
	Build(ctx context.Context, sender domain.Sender, update domain.Update) (*domain.Context, error)
}

// ContextBuilderFunc adapts a function to the ContextBuilder interface.
type ContextBuilderFunc func(ctx context.Context, sender domain.Sender, update domain.Update) (*domain.Context, error)

// Build calls f.
func (f ContextBuilderFunc) Build(ctx context.Context, sender domain.Sender, update domain.Update) (*domain.Context, error) {
	return f(ctx, sender, update)
}

// DefaultBuilder fills Text from the message text, or from the text of the
// message a callback button was attached to.
type DefaultBuilder struct{}

// Build implements ContextBuilder.
func (DefaultBuilder) Build(ctx context.Context, sender domain.Sender, update domain.Update) (*domain.Context, error) {
	if update.ConversationID == "" {
		return nil, fmt.Errorf("update %q has no conversation id", update.ID)
	}

	c := domain.NewContext(ctx, sender, update)
	switch update.Kind {
	case domain.UpdateCallback:
		if update.Callback != nil {
			c.Text = update.Callback.MessageText
		}
	default:
		c.Text = update.Text
	}
	return c, nil
}
