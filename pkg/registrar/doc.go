/*
Package registrar turns declarative handler metadata into validated routing tables.

A Host declares its selectors, states and actions next to the functions that implement
them, through a Binder:

	func (g *Greeter) Bind(b *registrar.Binder) {
		b.Selector("isStart", g.isStart)
		b.State(nil, "main")
		b.Action("greet", g.greet).When("isStart").In("main").Order(0)
	}

The Apply functions validate a complete batch of bindings against the live tables before
touching them: either every declaration in the batch is registered or none is. Selectors
and states must be applied before the actions that reference them.
*/
package registrar
