package registrar

import (
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/fsm"
	"github.com/aretw0/botflow/pkg/rules"
)

// ApplySelectors registers every selector of b into reg.
// Duplicates, within the batch or against reg, reject the whole batch.
func ApplySelectors(reg *rules.Registry, b Bindings) (int, error) {
	seen := make(map[string]struct{}, len(b.Selectors))
	for _, s := range b.Selectors {
		if err := s.validate(); err != nil {
			return 0, err
		}
		if _, dup := seen[s.Name]; dup || reg.Contains(s.Name) {
			return 0, configErr("selector", s.Name, "already registered")
		}
		seen[s.Name] = struct{}{}
	}

	selectors := make([]*rules.Selector, 0, len(b.Selectors))
	for _, s := range b.Selectors {
		sel, err := rules.NewSelector(s.Name, s.Predicate)
		if err != nil {
			return 0, err
		}
		selectors = append(selectors, sel)
	}
	for _, sel := range selectors {
		if err := reg.Register(sel); err != nil {
			return 0, err
		}
	}
	return len(selectors), nil
}

// ApplyStates registers every state of b into m.
// Duplicates, within the batch or against m, reject the whole batch.
func ApplyStates(m *fsm.Machine, b Bindings) (int, error) {
	seen := make(map[string]struct{})
	for _, s := range b.States {
		if err := s.validate(); err != nil {
			return 0, err
		}
		for _, name := range s.Names {
			if _, dup := seen[name]; dup || m.Contains(name) {
				return 0, configErr("state", name, "already registered")
			}
			seen[name] = struct{}{}
		}
	}

	var states []*fsm.State
	for _, s := range b.States {
		for _, name := range s.Names {
			st, err := fsm.NewState(name, s.Entry)
			if err != nil {
				return 0, err
			}
			states = append(states, st)
		}
	}
	for _, st := range states {
		if err := m.Add(st); err != nil {
			return 0, err
		}
	}
	return len(states), nil
}

// ApplyActions builds every action of b, attaches its selectors from reg and adds it to
// each of its states in m. Unknown selectors or states, or an action name already present
// in one of its target states, reject the whole batch.
func ApplyActions(reg *rules.Registry, m *fsm.Machine, b Bindings) (int, error) {
	type placement struct{ state, action string }
	placed := make(map[placement]struct{})

	for _, a := range b.Actions {
		if err := a.validate(); err != nil {
			return 0, err
		}
		for _, sel := range a.Selectors {
			if !reg.Contains(sel) {
				return 0, domain.NewConfigurationError("action", a.Name, "unknown selector %q", sel)
			}
		}
		for _, name := range a.States {
			st, ok := m.Get(name)
			if !ok {
				return 0, domain.NewConfigurationError("action", a.Name, "unknown state %q", name)
			}
			key := placement{state: name, action: a.Name}
			if _, dup := placed[key]; dup || st.FindAction(a.Name) != nil {
				return 0, domain.NewConfigurationError("action", a.Name, "already registered in state %q", name)
			}
			placed[key] = struct{}{}
		}
	}

	type pending struct {
		action *rules.Action
		states []*fsm.State
	}
	batch := make([]pending, 0, len(b.Actions))
	for _, a := range b.Actions {
		act, err := rules.NewAction(a.Name, a.Order, a.ContinueOnMatch, a.Body)
		if err != nil {
			return 0, err
		}
		for _, name := range a.Selectors {
			sel, _ := reg.Lookup(name)
			act.AddSelector(sel)
		}
		p := pending{action: act}
		for _, name := range a.States {
			st, _ := m.Get(name)
			p.states = append(p.states, st)
		}
		batch = append(batch, p)
	}
	for _, p := range batch {
		for _, st := range p.states {
			st.AddAction(p.action)
		}
	}
	return len(batch), nil
}
