/*
Package router is the entry point for applications: it owns the selector registry and the
state machine, fills both from Host declarations, and dispatches events.

	r, err := router.New(store, "main", router.WithLogger(logger))
	if err != nil { ... }
	if err := r.Register(&Menu{}, &Support{}); err != nil { ... }

	pipeline := middleware.NewPipeline(middleware.Recover(), r.Stage())

Registration must finish before the first dispatch; the tables are then shared read-only
by concurrent dispatches.
*/
package router
