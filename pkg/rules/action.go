package rules

import (
	"fmt"

	"github.com/aretw0/botflow/pkg/domain"
)

// Body is the unit of work an action performs.
type Body func(c *domain.Context) error

// Action is a named body gated by an OR of selectors.
type Action struct {
	name            string
	order           uint
	continueOnMatch bool
	body            Body
	selectors       []*Selector
}

// NewAction creates an action without selectors.
// Selectors are attached by the registrar before the action reaches a RuleSet.
func NewAction(name string, order uint, continueOnMatch bool, body Body) (*Action, error) {
	if name == "" {
		return nil, domain.NewConfigurationError("action", "", "name is required")
	}
	if body == nil {
		return nil, domain.NewConfigurationError("action", name, "body is required")
	}
	return &Action{
		name:            name,
		order:           order,
		continueOnMatch: continueOnMatch,
		body:            body,
	}, nil
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Order returns the execution priority; lower runs first.
func (a *Action) Order() uint { return a.order }

// ContinueOnMatch reports whether evaluation proceeds to later actions after this one runs.
func (a *Action) ContinueOnMatch() bool { return a.continueOnMatch }

// AddSelector attaches a selector. Registration time only.
func (a *Action) AddSelector(s *Selector) {
	a.selectors = append(a.selectors, s)
}

// RemoveSelector detaches a selector. Registration time only.
func (a *Action) RemoveSelector(s *Selector) {
	for i, existing := range a.selectors {
		if existing == s {
			a.selectors = append(a.selectors[:i], a.selectors[i+1:]...)
			return
		}
	}
}

// Selectors returns the names of the attached selectors in attachment order.
func (a *Action) Selectors() []string {
	names := make([]string, len(a.selectors))
	for i, s := range a.selectors {
		names[i] = s.name
	}
	return names
}

// IsTarget reports whether any attached selector matches c.
// Predicates are evaluated in attachment order and evaluation stops at the first match.
func (a *Action) IsTarget(c *domain.Context) (bool, error) {
	if len(a.selectors) == 0 {
		return false, fmt.Errorf("action %q: %w", a.name, domain.ErrNoSelectors)
	}
	for _, s := range a.selectors {
		ok, err := s.Match(c)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Execute runs the action body.
func (a *Action) Execute(c *domain.Context) error {
	return a.body(c)
}
