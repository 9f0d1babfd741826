package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

// Machine is the registry of states plus the base-state policy.
//
// The state table is read-only once registration is over and may then be shared by
// concurrent dispatches. Add and Remove must not race with Handle.
type Machine struct {
	states map[string]*State
	base   string
	store  ports.StateStore
	hooks  domain.DispatchHooks
	logger *slog.Logger
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger configures a logger for the Machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithHooks registers dispatch hooks. They are propagated to every state's rule set.
func WithHooks(hooks domain.DispatchHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// New creates a Machine backed by store. base is the state a conversation without
// stored state starts in; it does not need to be registered yet.
func New(store ports.StateStore, base string, opts ...Option) (*Machine, error) {
	if store == nil {
		return nil, domain.NewConfigurationError("machine", "", "state store is required")
	}
	if base == "" {
		return nil, domain.NewConfigurationError("machine", "", "base state name is required")
	}
	m := &Machine{
		states: make(map[string]*State),
		base:   base,
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Base returns the base state name.
func (m *Machine) Base() string { return m.base }

// Store returns the underlying state store.
func (m *Machine) Store() ports.StateStore { return m.store }

// Add registers a state. Duplicate names are a configuration error.
func (m *Machine) Add(s *State) error {
	if s == nil {
		return domain.NewConfigurationError("state", "", "state is nil")
	}
	if _, exists := m.states[s.name]; exists {
		return domain.NewConfigurationError("state", s.name, "already registered")
	}
	s.rules.SetHooks(m.hooks)
	m.states[s.name] = s
	return nil
}

// Remove unregisters a state. Conversations still pointing at it will fail with
// domain.ErrUnknownState on their next event.
func (m *Machine) Remove(name string) bool {
	if _, ok := m.states[name]; !ok {
		return false
	}
	delete(m.states, name)
	return true
}

// Get returns the state registered under name.
func (m *Machine) Get(name string) (*State, bool) {
	s, ok := m.states[name]
	return s, ok
}

// Contains reports whether name is registered.
func (m *Machine) Contains(name string) bool {
	_, ok := m.states[name]
	return ok
}

// Names returns the registered state names in lexical order.
func (m *Machine) Names() []string {
	names := make([]string, 0, len(m.states))
	for name := range m.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle dispatches c into the conversation's current state.
func (m *Machine) Handle(c *domain.Context) error {
	ctx := c.Context()

	name, initial, err := m.resolve(ctx, c.ConversationID)
	if err != nil {
		return err
	}

	state, ok := m.states[name]
	if !ok {
		return &domain.UnknownStateError{ConversationID: c.ConversationID, State: name}
	}

	c.State = &handle{machine: m, conversationID: c.ConversationID, current: name}

	m.logger.Debug("Dispatching into state",
		"conversation_id", c.ConversationID,
		"state", name,
		"initial", initial,
	)
	if m.hooks.OnStateEnter != nil {
		m.hooks.OnStateEnter(ctx, &domain.StateEvent{
			EventBase: domain.NewEventBase(domain.EventStateEnter, c),
			State:     name,
			Initial:   initial,
		})
	}

	return state.Handle(c)
}

// resolve reads the stored state, applying the base-state policy for new conversations.
func (m *Machine) resolve(ctx context.Context, conversationID string) (string, bool, error) {
	name, err := m.store.GetState(ctx, conversationID)
	if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
		return "", false, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if err == nil && name != "" {
		return name, false, nil
	}

	if !m.Contains(m.base) {
		return "", false, &domain.UnknownStateError{ConversationID: conversationID, State: m.base, Base: true}
	}
	if err := m.store.SetState(ctx, conversationID, m.base); err != nil {
		return "", false, fmt.Errorf("failed to initialize conversation state: %w", err)
	}
	return m.base, true, nil
}

// SetState moves a conversation to a registered state.
func (m *Machine) SetState(ctx context.Context, conversationID, name string) error {
	if !m.Contains(name) {
		return &domain.UnknownStateError{ConversationID: conversationID, State: name}
	}
	return m.store.SetState(ctx, conversationID, name)
}

// ClearState forgets a conversation's state.
func (m *Machine) ClearState(ctx context.Context, conversationID string) error {
	return m.store.ClearState(ctx, conversationID)
}

// Current returns the stored state of a conversation without applying the base-state policy.
// The boolean is false when the conversation has no stored state.
func (m *Machine) Current(ctx context.Context, conversationID string) (string, bool, error) {
	name, err := m.store.GetState(ctx, conversationID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, name != "", nil
}

// handle binds the Machine to one conversation for the duration of a dispatch.
type handle struct {
	machine        *Machine
	conversationID string
	current        string
}

func (h *handle) Current() string { return h.current }

func (h *handle) Set(ctx context.Context, name string) error {
	start := time.Now()
	err := h.machine.SetState(ctx, h.conversationID, name)
	h.machine.logger.Debug("Conversation state changed",
		"conversation_id", h.conversationID,
		"from", h.current,
		"to", name,
		"duration", time.Since(start),
		"err", err,
	)
	return err
}

func (h *handle) Clear(ctx context.Context) error {
	return h.machine.ClearState(ctx, h.conversationID)
}
