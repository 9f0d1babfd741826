package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sender is the platform handle bodies use to talk back to a conversation.
type Sender interface {
	Send(ctx context.Context, conversationID, text string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, conversationID, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, conversationID, text string) error {
	return f(ctx, conversationID, text)
}

// StateHandle gives bodies access to the current conversation's state pointer.
// The state machine binds one to the Context before running any body.
type StateHandle interface {
	// Current returns the state the dispatch was routed to.
	Current() string
	// Set moves the conversation to the named state for subsequent events.
	Set(ctx context.Context, name string) error
	// Clear forgets the conversation's state; the next event starts in the base state.
	Clear(ctx context.Context) error
}

// Context carries one inbound event through the pipeline.
//
// Its shape is fixed once built but its content is not: stages and bodies may rewrite
// Text or Values, and later handlers in the same dispatch observe the change.
// The cancellation signal is advisory; bodies are expected to honor Context().
type Context struct {
	ID             string
	ConversationID string
	Update         Update
	Text           string
	ReceivedAt     time.Time

	// Sender is the platform handle. May be nil for headless dispatch.
	Sender Sender

	// State is bound by the state machine for the duration of the dispatch.
	State StateHandle

	// Values is per-event scratch space shared by stages and bodies.
	Values map[string]any

	ctx context.Context
}

// NewContext creates a Context for the given update.
func NewContext(ctx context.Context, sender Sender, update Update) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		ID:             uuid.NewString(),
		ConversationID: update.ConversationID,
		Update:         update,
		Text:           update.Text,
		ReceivedAt:     time.Now(),
		Sender:         sender,
		Values:         make(map[string]any),
		ctx:            ctx,
	}
}

// Context returns the cancellation context of the event.
func (c *Context) Context() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

// BindContext replaces the cancellation context of c for the rest of the chain and
// returns a function restoring the previous one. The Context itself is not copied, so
// rewrites made downstream stay visible to the caller.
func (c *Context) BindContext(ctx context.Context) (restore func()) {
	if ctx == nil {
		panic("nil context")
	}
	prev := c.ctx
	c.ctx = ctx
	return func() { c.ctx = prev }
}

// Reply sends text to the conversation through the context's Sender.
func (c *Context) Reply(text string) error {
	if c.Sender == nil {
		return ErrNoSender
	}
	return c.Sender.Send(c.Context(), c.ConversationID, text)
}

// IsCallback reports whether the event is a callback query.
func (c *Context) IsCallback() bool {
	return c.Update.Kind == UpdateCallback && c.Update.Callback != nil
}

// CallbackData returns the callback payload, or "" for messages.
func (c *Context) CallbackData() string {
	if c.Update.Callback == nil {
		return ""
	}
	return c.Update.Callback.Data
}
