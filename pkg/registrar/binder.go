package registrar

import (
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/fsm"
	"github.com/aretw0/botflow/pkg/rules"
)

// Host is an object that declares routing metadata for its own handlers.
type Host interface {
	Bind(b *Binder)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(b *Binder)

// Bind calls f.
func (f HostFunc) Bind(b *Binder) { f(b) }

// Binder records declarations. It performs no validation; that happens in Apply*.
type Binder struct {
	selectors []SelectorBinding
	states    []StateBinding
	actions   []*ActionBinding
}

// NewBinder creates an empty Binder.
func NewBinder() *Binder {
	return &Binder{}
}

// Selector declares a named predicate.
func (b *Binder) Selector(name string, predicate rules.Predicate) *Binder {
	b.selectors = append(b.selectors, SelectorBinding{Name: name, Predicate: predicate})
	return b
}

// State declares states sharing an entry body. entry may be nil.
func (b *Binder) State(entry fsm.EntryFunc, names ...string) *Binder {
	b.states = append(b.states, StateBinding{Names: names, Entry: entry})
	return b
}

// Action starts a fluent action declaration.
func (b *Binder) Action(name string, body rules.Body) *ActionBuilder {
	ab := &ActionBinding{Name: name, Body: body}
	b.actions = append(b.actions, ab)
	return &ActionBuilder{binding: ab}
}

// Declare records a fully specified action declaration.
func (b *Binder) Declare(a ActionBinding) *Binder {
	a.Selectors = append([]string(nil), a.Selectors...)
	a.States = append([]string(nil), a.States...)
	b.actions = append(b.actions, &a)
	return b
}

// Bindings returns a snapshot of the recorded declarations in declaration order.
func (b *Binder) Bindings() Bindings {
	out := Bindings{
		Selectors: append([]SelectorBinding(nil), b.selectors...),
		States:    append([]StateBinding(nil), b.states...),
		Actions:   make([]ActionBinding, 0, len(b.actions)),
	}
	for _, a := range b.actions {
		cp := *a
		cp.Selectors = append([]string(nil), a.Selectors...)
		cp.States = append([]string(nil), a.States...)
		out.Actions = append(out.Actions, cp)
	}
	return out
}

// ActionBuilder provides a fluent API for configuring an action declaration.
type ActionBuilder struct {
	binding *ActionBinding
}

// When adds selectors; the action matches when any of them matches.
func (a *ActionBuilder) When(selectors ...string) *ActionBuilder {
	a.binding.Selectors = append(a.binding.Selectors, selectors...)
	return a
}

// In adds the states the action belongs to.
func (a *ActionBuilder) In(states ...string) *ActionBuilder {
	a.binding.States = append(a.binding.States, states...)
	return a
}

// Order sets the execution priority; lower runs first.
func (a *ActionBuilder) Order(order uint) *ActionBuilder {
	a.binding.Order = order
	return a
}

// Continue lets evaluation proceed to later actions after this one runs.
func (a *ActionBuilder) Continue() *ActionBuilder {
	a.binding.ContinueOnMatch = true
	return a
}

// Collect runs every host's Bind against a fresh Binder and merges the results in order.
func Collect(hosts ...Host) (Bindings, error) {
	var all Bindings
	for i, h := range hosts {
		if h == nil {
			return Bindings{}, domain.NewConfigurationError("host", "", "host #%d is nil", i)
		}
		b := NewBinder()
		h.Bind(b)
		all = all.Merge(b.Bindings())
	}
	return all, nil
}

func configErr(component, name, reason string) error {
	return domain.NewConfigurationError(component, name, "%s", reason)
}
