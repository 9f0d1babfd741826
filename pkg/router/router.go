package router

import (
	"log/slog"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/fsm"
	"github.com/aretw0/botflow/pkg/middleware"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/aretw0/botflow/pkg/registrar"
	"github.com/aretw0/botflow/pkg/rules"
)

// Router couples a selector registry with a state machine.
type Router struct {
	selectors *rules.Registry
	machine   *fsm.Machine
	logger    *slog.Logger
	hooks     domain.DispatchHooks
}

// Option configures the Router.
type Option func(*Router)

// WithLogger configures a logger for the Router and its state machine.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithHooks registers dispatch hooks. Multiple calls are merged.
func WithHooks(hooks domain.DispatchHooks) Option {
	return func(r *Router) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// New creates an empty Router persisting conversation state in store.
func New(store ports.StateStore, base string, opts ...Option) (*Router, error) {
	r := &Router{
		selectors: rules.NewRegistry(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	m, err := fsm.New(store, base, fsm.WithLogger(r.logger), fsm.WithHooks(r.hooks))
	if err != nil {
		return nil, err
	}
	r.machine = m
	return r, nil
}

// Machine returns the underlying state machine.
func (r *Router) Machine() *fsm.Machine { return r.machine }

// Selectors returns the selector registry.
func (r *Router) Selectors() *rules.Registry { return r.selectors }

// ParseSelectors registers the selectors declared by hosts.
func (r *Router) ParseSelectors(hosts ...Host) error {
	b, err := collect(hosts)
	if err != nil {
		return err
	}
	n, err := registrar.ApplySelectors(r.selectors, b)
	if err != nil {
		return err
	}
	r.logger.Debug("selectors registered", "count", n)
	return nil
}

// ParseStates registers the states declared by hosts.
func (r *Router) ParseStates(hosts ...Host) error {
	b, err := collect(hosts)
	if err != nil {
		return err
	}
	n, err := registrar.ApplyStates(r.machine, b)
	if err != nil {
		return err
	}
	r.logger.Debug("states registered", "count", n)
	return nil
}

// ParseActions registers the actions declared by hosts. Every selector and state they
// reference must already be registered.
func (r *Router) ParseActions(hosts ...Host) error {
	b, err := collect(hosts)
	if err != nil {
		return err
	}
	n, err := registrar.ApplyActions(r.selectors, r.machine, b)
	if err != nil {
		return err
	}
	r.logger.Debug("actions registered", "count", n)
	return nil
}

// Register parses selectors, then states, then actions from hosts.
func (r *Router) Register(hosts ...Host) error {
	if err := r.ParseSelectors(hosts...); err != nil {
		return err
	}
	if err := r.ParseStates(hosts...); err != nil {
		return err
	}
	return r.ParseActions(hosts...)
}

// Handle dispatches c into the conversation's current state.
func (r *Router) Handle(c *domain.Context) error {
	return r.machine.Handle(c)
}

// Stage returns a pipeline stage that routes the event and then continues the chain.
func (r *Router) Stage() middleware.Stage {
	return middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
		if err := r.Handle(c); err != nil {
			return err
		}
		return next(c)
	})
}

// Host is re-exported so applications only need to import this package.
type Host = registrar.Host

// HostFunc is re-exported so applications only need to import this package.
type HostFunc = registrar.HostFunc

// Binder is re-exported so applications only need to import this package.
type Binder = registrar.Binder

func collect(hosts []Host) (registrar.Bindings, error) {
	if len(hosts) == 0 {
		return registrar.Bindings{}, domain.NewConfigurationError("router", "", "at least one host is required")
	}
	return registrar.Collect(hosts...)
}
