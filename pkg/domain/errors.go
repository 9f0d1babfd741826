package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every registration-time validation failure.
var ErrConfiguration = errors.New("configuration error")

// ErrUnknownState is returned when a conversation points at a state that is not registered.
var ErrUnknownState = errors.New("unknown state")

// ErrUnknownBaseState is returned when a new conversation needs the base state but it is not registered.
var ErrUnknownBaseState = errors.New("unknown base state")

// ErrNoSelectors is returned when an action without selectors is asked to match.
// Registration never produces such an action, so seeing it means the tables were corrupted.
var ErrNoSelectors = errors.New("action has no selectors")

// ErrStateNotFound is returned by a StateStore when the conversation has no stored state.
var ErrStateNotFound = errors.New("conversation state not found")

// ErrNoSender is returned by Context.Reply when the context was built without a Sender.
var ErrNoSender = errors.New("context has no sender")

// ConfigurationError describes an invalid selector, state or action declaration.
type ConfigurationError struct {
	Component string // "selector", "state", "action", "router", ...
	Name      string
	Reason    string
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(component, name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Name:      name,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Component, e.Reason)
	}
	return fmt.Sprintf("%s: %s %q: %s", ErrConfiguration, e.Component, e.Name, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// UnknownStateError reports a state name that could not be resolved during dispatch.
// This typically happens when a stored state was renamed or removed between deployments.
type UnknownStateError struct {
	ConversationID string
	State          string
	Base           bool
}

func (e *UnknownStateError) Error() string {
	if e.Base {
		return fmt.Sprintf("%s %q (conversation %s)", ErrUnknownBaseState, e.State, e.ConversationID)
	}
	return fmt.Sprintf("%s %q (conversation %s)", ErrUnknownState, e.State, e.ConversationID)
}

func (e *UnknownStateError) Unwrap() error {
	if e.Base {
		return ErrUnknownBaseState
	}
	return ErrUnknownState
}
