package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter    EventType = "state_enter"
	EventActionExecute EventType = "action_execute"
	EventActionReturn  EventType = "action_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	ContextID      string    `json:"context_id"`
}

// StateEvent represents a dispatch entering a state.
type StateEvent struct {
	EventBase
	State   string `json:"state"`
	Initial bool   `json:"initial,omitempty"` // conversation had no stored state
}

// ActionEvent represents the execution of a matched action.
type ActionEvent struct {
	EventBase
	Action   string        `json:"action"`
	Order    uint          `json:"order"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// DispatchHooks defines callbacks for dispatch observability.
// Nil callbacks are skipped.
type DispatchHooks struct {
	OnStateEnter    func(context.Context, *StateEvent)
	OnActionExecute func(context.Context, *ActionEvent)
	OnActionReturn  func(context.Context, *ActionEvent)
}

// NewEventBase stamps an event for the given context.
func NewEventBase(t EventType, c *Context) EventBase {
	return EventBase{
		Timestamp:      time.Now(),
		Type:           t,
		ConversationID: c.ConversationID,
		ContextID:      c.ID,
	}
}

// Merge returns hooks that call h first and then other.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnStateEnter:    chainState(h.OnStateEnter, other.OnStateEnter),
		OnActionExecute: chainAction(h.OnActionExecute, other.OnActionExecute),
		OnActionReturn:  chainAction(h.OnActionReturn, other.OnActionReturn),
	}
}

func chainState(a, b func(context.Context, *StateEvent)) func(context.Context, *StateEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StateEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainAction(a, b func(context.Context, *ActionEvent)) func(context.Context, *ActionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ActionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
