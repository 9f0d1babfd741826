/*
Package botflow is a conversational router for chat bots.

Every inbound update becomes a Context that travels through an ordered middleware pipeline.
One of the stages is the router, which looks up the conversation's current state, runs
that state's entry body, and evaluates its rule set: an ordered list of actions, each
gated by named predicates (selectors). Bodies move the conversation to another state by
writing through c.State; the new state takes effect on the next event.

# Concept

Handlers declare their routing metadata next to the code that implements them. A Host
binds selectors, states and actions through a Binder, and the router validates the whole
declaration set before the first event is dispatched.

	type Greeter struct{}

	func (g *Greeter) Bind(b *router.Binder) {
		b.Selector("isStart", func(c *domain.Context) (bool, error) {
			return c.Text == "/start", nil
		})
		b.State(nil, "main")
		b.Action("greet", g.greet).When("isStart").In("main")
	}

	func (g *Greeter) greet(c *domain.Context) error {
		return c.Reply("hello!")
	}

# Usage

	r, err := router.New(memory.NewStore(), "main")
	if err != nil {
		log.Fatal(err)
	}
	if err := r.Register(&Greeter{}); err != nil {
		log.Fatal(err)
	}

	bot, err := botflow.New(middleware.NewPipeline(middleware.Recover(), r.Stage()),
		botflow.WithSender(mySender),
	)
	if err != nil {
		log.Fatal(err)
	}
	_ = bot.Run(ctx, myUpdateSource)

# Concurrency

Run dispatches updates concurrently. Events of one conversation are not ordered relative
to each other unless the pipeline contains middleware.Serialize.
*/
package botflow
