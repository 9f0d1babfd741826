package router

// ActionRoute describes one action of a state, in evaluation order.
type ActionRoute struct {
	Name            string   `json:"name"`
	Order           uint     `json:"order"`
	ContinueOnMatch bool     `json:"continue_on_match"`
	Selectors       []string `json:"selectors"`
}

// StateRoute describes one registered state.
type StateRoute struct {
	Name     string        `json:"name"`
	Base     bool          `json:"base"`
	HasEntry bool          `json:"has_entry"`
	Actions  []ActionRoute `json:"actions"`
}

// Describe returns the route table, states in lexical order.
func (r *Router) Describe() []StateRoute {
	names := r.machine.Names()
	out := make([]StateRoute, 0, len(names))
	for _, name := range names {
		st, _ := r.machine.Get(name)
		route := StateRoute{
			Name:     name,
			Base:     name == r.machine.Base(),
			HasEntry: st.HasEntry(),
		}
		for _, a := range st.Rules().Actions() {
			route.Actions = append(route.Actions, ActionRoute{
				Name:            a.Name(),
				Order:           a.Order(),
				ContinueOnMatch: a.ContinueOnMatch(),
				Selectors:       a.Selectors(),
			})
		}
		out = append(out, route)
	}
	return out
}
