package http

import (
	"context"
	"sync"
)

// Reply is one message produced by a dispatch.
type Reply struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// Outbox is a domain.Sender that collects replies so they can be returned in the
// webhook response instead of being pushed to the platform.
type Outbox struct {
	mu      sync.Mutex
	replies []Reply
}

// Send records a reply.
func (o *Outbox) Send(ctx context.Context, conversationID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replies = append(o.replies, Reply{ConversationID: conversationID, Text: text})
	return nil
}

// Replies returns the collected replies in send order.
func (o *Outbox) Replies() []Reply {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Reply{}, o.replies...)
}
