package fsm

import (
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/rules"
)

// EntryFunc runs every time an event is dispatched into a state.
// It receives the state's rule set and decides whether and when to evaluate it.
type EntryFunc func(c *domain.Context, rs *rules.RuleSet) error

// Delegate is an EntryFunc that only evaluates the rule set.
func Delegate(c *domain.Context, rs *rules.RuleSet) error {
	return rs.Handle(c)
}

// State is a named node of the conversation state machine.
type State struct {
	name  string
	entry EntryFunc
	rules *rules.RuleSet
}

// NewState creates a state. entry may be nil, in which case dispatch evaluates the
// rule set directly.
func NewState(name string, entry EntryFunc) (*State, error) {
	if name == "" {
		return nil, domain.NewConfigurationError("state", "", "name is required")
	}
	return &State{
		name:  name,
		entry: entry,
		rules: rules.NewRuleSet(),
	}, nil
}

// Name returns the state name.
func (s *State) Name() string { return s.name }

// HasEntry reports whether the state has an entry body.
func (s *State) HasEntry() bool { return s.entry != nil }

// Rules returns the state's rule set.
func (s *State) Rules() *rules.RuleSet { return s.rules }

// AddAction adds an action to the state's rule set. Registration time only.
func (s *State) AddAction(a *rules.Action) *State {
	s.rules.Add(a)
	return s
}

// RemoveAction removes an action from the state's rule set. Registration time only.
func (s *State) RemoveAction(a *rules.Action) *State {
	s.rules.Remove(a)
	return s
}

// FindAction returns the action registered under name, or nil.
func (s *State) FindAction(name string) *rules.Action {
	return s.rules.FindAction(func(a *rules.Action) bool { return a.Name() == name })
}

// Handle runs the entry body, or the rule set when there is none.
func (s *State) Handle(c *domain.Context) error {
	if s.entry == nil {
		return s.rules.Handle(c)
	}
	return s.entry(c, s.rules)
}
