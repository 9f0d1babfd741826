package rules

import (
	"sort"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
)

// RuleSet is the ordered collection of actions belonging to one state.
//
// Add and Remove are meant for registration time. They are not synchronized against
// Handle; calling them while events are being dispatched is a data race.
type RuleSet struct {
	actions []*Action
	hooks   domain.DispatchHooks
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{}
}

// SetHooks installs dispatch hooks fired around action execution.
func (rs *RuleSet) SetHooks(hooks domain.DispatchHooks) {
	rs.hooks = hooks
}

// Add inserts an action keeping the (Order, registration index) ordering.
// Actions with equal Order keep the order in which they were added.
func (rs *RuleSet) Add(a *Action) {
	if a == nil {
		return
	}
	rs.actions = append(rs.actions, a)
	sort.SliceStable(rs.actions, func(i, j int) bool {
		return rs.actions[i].order < rs.actions[j].order
	})
}

// Remove detaches an action. Remaining actions keep their relative order.
func (rs *RuleSet) Remove(a *Action) bool {
	for i, existing := range rs.actions {
		if existing == a {
			rs.actions = append(rs.actions[:i], rs.actions[i+1:]...)
			return true
		}
	}
	return false
}

// Handle evaluates the actions against c in a single forward pass.
//
// Each matching action's body runs to completion before the next action is considered.
// Evaluation stops right after the first matching action that does not continue on match.
// No match is not an error. Predicate and body errors abort the pass and are returned as is.
func (rs *RuleSet) Handle(c *domain.Context) error {
	for _, a := range rs.actions {
		matched, err := a.IsTarget(c)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}

		if err := rs.execute(a, c); err != nil {
			return err
		}

		if !a.continueOnMatch {
			return nil
		}
	}
	return nil
}

func (rs *RuleSet) execute(a *Action, c *domain.Context) error {
	ctx := c.Context()
	if rs.hooks.OnActionExecute != nil {
		rs.hooks.OnActionExecute(ctx, &domain.ActionEvent{
			EventBase: domain.NewEventBase(domain.EventActionExecute, c),
			Action:    a.name,
			Order:     a.order,
		})
	}

	start := time.Now()
	err := a.Execute(c)

	if rs.hooks.OnActionReturn != nil {
		rs.hooks.OnActionReturn(ctx, &domain.ActionEvent{
			EventBase: domain.NewEventBase(domain.EventActionReturn, c),
			Action:    a.name,
			Order:     a.order,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// FindAction returns the first action, in evaluation order, satisfying pred.
func (rs *RuleSet) FindAction(pred func(*Action) bool) *Action {
	for _, a := range rs.actions {
		if pred(a) {
			return a
		}
	}
	return nil
}

// Actions returns the actions in evaluation order.
func (rs *RuleSet) Actions() []*Action {
	out := make([]*Action, len(rs.actions))
	copy(out, rs.actions)
	return out
}

// Len returns the number of actions.
func (rs *RuleSet) Len() int {
	return len(rs.actions)
}
