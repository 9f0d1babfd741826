package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/config"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/middleware"
	"github.com/aretw0/botflow/pkg/observability"
	"github.com/aretw0/botflow/pkg/router"
	"github.com/aretw0/botflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ServiceName identifies the process in traces.
const ServiceName = "botflow"

// Runtime is a fully wired bot: persistence, routing tables, pipeline and receive loop.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *Persistence
	Sessions *session.Manager
	Router   *router.Router
	Pipeline *middleware.Pipeline
	Bot      *botflow.Bot
	Registry *prometheus.Registry

	shutdownTracing func(context.Context) error
}

// Build wires a Runtime from cfg and registers hosts. Options are appended to the
// Bot's own and may override the sender or error reporter.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, hosts []router.Host, opts ...botflow.Option) (*Runtime, error) {
	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	rt.Store = store

	tp, shutdown, err := SetupTracing(ctx, cfg.Tracing, ServiceName)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	rt.shutdownTracing = shutdown

	metrics, err := observability.NewMetrics(rt.Registry)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
	if cfg.Tracing.Enabled {
		hooks = hooks.Merge(observability.TraceHooks())
	}

	r, err := router.New(store.Store, cfg.BaseState, router.WithLogger(logger), router.WithHooks(hooks))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	if err := r.Register(hosts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}
	rt.Router = r

	sessionOpts := []session.Option{session.WithLogger(logger), session.WithLockTTL(cfg.Dispatch.LockTTL)}
	if store.Locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(store.Locker))
	}
	rt.Sessions = session.NewManager(store.Store, sessionOpts...)

	p := middleware.NewPipeline(
		middleware.Recover(),
		middleware.Logging(logger),
	)
	if cfg.Tracing.Enabled {
		p.Add(observability.Tracing(tp))
	}
	p.Add(metrics.Stage())
	if len(cfg.Dispatch.AllowConversations) > 0 {
		p.Add(middleware.AllowConversations(cfg.Dispatch.AllowConversations...))
	}
	if cfg.Dispatch.Timeout > 0 {
		p.Add(middleware.Timeout(cfg.Dispatch.Timeout))
	}
	if cfg.Dispatch.Serialize {
		p.Add(middleware.Serialize(rt.Sessions))
	}
	p.Add(r.Stage())
	rt.Pipeline = p

	botOpts := append([]botflow.Option{
		botflow.WithLogger(logger),
		botflow.WithConcurrency(cfg.Dispatch.Concurrency),
	}, opts...)
	bot, err := botflow.New(p, botOpts...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Bot = bot

	logger.Debug("runtime ready",
		"store", cfg.Store.Backend,
		"base_state", cfg.BaseState,
		"stages", p.Len(),
		"serialize", cfg.Dispatch.Serialize,
	)
	return rt, nil
}

// Close flushes traces and releases the store.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.shutdownTracing != nil {
		errs = append(errs, rt.shutdownTracing(ctx))
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	return errors.Join(errs...)
}

// Reset clears a conversation's state under its lock.
func (rt *Runtime) Reset(ctx context.Context, conversationID string) error {
	if err := rt.Sessions.Reset(ctx, conversationID); err != nil && !errors.Is(err, domain.ErrStateNotFound) {
		return err
	}
	return nil
}
