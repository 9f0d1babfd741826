package registrar

import (
	"github.com/aretw0/botflow/pkg/fsm"
	"github.com/aretw0/botflow/pkg/rules"
)

// SelectorBinding declares a named predicate.
type SelectorBinding struct {
	Name      string
	Predicate rules.Predicate
}

// StateBinding declares one or more states sharing an entry body.
// A nil Entry makes the state evaluate its rule set directly.
type StateBinding struct {
	Names []string
	Entry fsm.EntryFunc
}

// ActionBinding declares an action, the selectors gating it and the states it belongs to.
type ActionBinding struct {
	Name            string
	Selectors       []string
	States          []string
	Order           uint
	ContinueOnMatch bool
	Body            rules.Body
}

// Bindings is the set of declarations produced by one or more hosts.
type Bindings struct {
	Selectors []SelectorBinding
	States    []StateBinding
	Actions   []ActionBinding
}

// Merge appends other's declarations after b's.
func (b Bindings) Merge(other Bindings) Bindings {
	return Bindings{
		Selectors: append(append([]SelectorBinding(nil), b.Selectors...), other.Selectors...),
		States:    append(append([]StateBinding(nil), b.States...), other.States...),
		Actions:   append(append([]ActionBinding(nil), b.Actions...), other.Actions...),
	}
}

// Validate checks the shape of every declaration, without looking at any live table.
func (b Bindings) Validate() error {
	for _, s := range b.Selectors {
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, s := range b.States {
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, a := range b.Actions {
		if err := a.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s SelectorBinding) validate() error {
	if s.Name == "" {
		return configErr("selector", "", "name is required")
	}
	if s.Predicate == nil {
		return configErr("selector", s.Name, "predicate is required")
	}
	return nil
}

func (s StateBinding) validate() error {
	if len(s.Names) == 0 {
		return configErr("state", "", "at least one state name is required")
	}
	for _, name := range s.Names {
		if name == "" {
			return configErr("state", "", "state names must not be empty")
		}
	}
	return nil
}

func (a ActionBinding) validate() error {
	if a.Name == "" {
		return configErr("action", "", "name is required")
	}
	if a.Body == nil {
		return configErr("action", a.Name, "body is required")
	}
	if len(a.Selectors) == 0 {
		return configErr("action", a.Name, "at least one selector is required")
	}
	for _, sel := range a.Selectors {
		if sel == "" {
			return configErr("action", a.Name, "selector names must not be empty")
		}
	}
	if len(a.States) == 0 {
		return configErr("action", a.Name, "at least one state is required")
	}
	for _, st := range a.States {
		if st == "" {
			return configErr("action", a.Name, "state names must not be empty")
		}
	}
	return nil
}
