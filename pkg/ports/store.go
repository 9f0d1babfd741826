package ports

import (
	"context"
)

// StateStore persists the current state of each conversation.
//
// The router imposes no locking around these calls: two concurrent dispatches for the same
// conversation may interleave their reads and writes. Callers that need per-conversation
// mutual exclusion install the middleware.Serialize stage.
type StateStore interface {
	// GetState returns the stored state name for the conversation.
	// Returns domain.ErrStateNotFound if the conversation has no stored state.
	GetState(ctx context.Context, conversationID string) (string, error)

	// SetState stores the state name for the conversation.
	SetState(ctx context.Context, conversationID, state string) error

	// ClearState removes the conversation's stored state. Clearing an unknown
	// conversation is not an error.
	ClearState(ctx context.Context, conversationID string) error
}

// Lister is implemented by stores that can enumerate known conversations.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
