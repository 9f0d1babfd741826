package botflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/middleware"
	"github.com/aretw0/botflow/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of in-flight dispatches of Run.
const DefaultConcurrency = 16

// Bot is the receive loop: it builds a Context for every update, runs the pipeline,
// and hands escaped errors to the ErrorReporter.
type Bot struct {
	pipeline    *middleware.Pipeline
	builder     ports.ContextBuilder
	reporter    ports.ErrorReporter
	sender      domain.Sender
	concurrency int
	logger      *slog.Logger
}

// Option configures the Bot.
type Option func(*Bot)

// WithContextBuilder replaces ports.DefaultBuilder.
func WithContextBuilder(builder ports.ContextBuilder) Option {
	return func(b *Bot) {
		b.builder = builder
	}
}

// WithErrorReporter replaces the logging reporter.
func WithErrorReporter(reporter ports.ErrorReporter) Option {
	return func(b *Bot) {
		b.reporter = reporter
	}
}

// WithSender sets the platform handle bodies reply through.
func WithSender(sender domain.Sender) Option {
	return func(b *Bot) {
		b.sender = sender
	}
}

// WithConcurrency bounds the number of concurrent dispatches of Run.
func WithConcurrency(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New creates a Bot around pipeline.
func New(pipeline *middleware.Pipeline, opts ...Option) (*Bot, error) {
	if pipeline == nil {
		return nil, domain.NewConfigurationError("bot", "", "pipeline is required")
	}
	b := &Bot{
		pipeline:    pipeline,
		builder:     ports.DefaultBuilder{},
		concurrency: DefaultConcurrency,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.reporter == nil {
		b.reporter = LogReporter(b.logger)
	}
	return b, nil
}

// Dispatch runs one update through the pipeline using the Bot's sender.
func (b *Bot) Dispatch(ctx context.Context, update domain.Update) error {
	return b.DispatchVia(ctx, b.sender, update)
}

// DispatchVia runs one update through the pipeline, replying through sender.
// Errors are reported and also returned.
func (b *Bot) DispatchVia(ctx context.Context, sender domain.Sender, update domain.Update) error {
	c, err := b.builder.Build(ctx, sender, update)
	if err != nil {
		err = fmt.Errorf("failed to build context: %w", err)
		b.reporter.Report(ctx, update, err)
		return err
	}
	if err := b.pipeline.Invoke(c); err != nil {
		b.reporter.Report(ctx, update, err)
		return err
	}
	return nil
}

// Run consumes source until it is exhausted or ctx is done, dispatching updates
// concurrently. Dispatch errors are reported, not returned. Run waits for in-flight
// dispatches before returning.
func (b *Bot) Run(ctx context.Context, source ports.UpdateSource) error {
	updates, err := source.Updates(ctx)
	if err != nil {
		return fmt.Errorf("failed to open update source: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	b.logger.Info("bot started", "concurrency", b.concurrency)
	defer b.logger.Info("bot stopped")

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				_ = b.Dispatch(ctx, update)
				return nil
			})
		}
	}
}
