package observability

import (
	"context"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "botflow"

// Metrics holds the Prometheus collectors of a bot.
type Metrics struct {
	dispatches       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	stateEntries     *prometheus.CounterVec
	actionExecutions *prometheus.CounterVec
	actionDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of dispatched events by outcome.",
			},
			[]string{"outcome"},
		),
		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of a full pipeline traversal.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		stateEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_entries_total",
				Help:      "Total number of events dispatched into each state.",
			},
			[]string{"state"},
		),
		actionExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "action_executions_total",
				Help:      "Total number of action executions by outcome.",
			},
			[]string{"action", "outcome"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of action bodies.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
	}

	for _, c := range []prometheus.Collector{m.dispatches, m.dispatchDuration, m.stateEntries, m.actionExecutions, m.actionDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Stage returns a pipeline stage counting and timing every dispatch.
func (m *Metrics) Stage() middleware.Stage {
	return middleware.StageFunc(func(c *domain.Context, next middleware.Next) error {
		start := time.Now()
		err := next(c)
		m.dispatchDuration.Observe(time.Since(start).Seconds())
		m.dispatches.WithLabelValues(outcome(err)).Inc()
		return err
	})
}

// Hooks returns dispatch hooks recording state entries and action executions.
func (m *Metrics) Hooks() domain.DispatchHooks {
	return domain.DispatchHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.stateEntries.WithLabelValues(e.State).Inc()
		},
		OnActionReturn: func(_ context.Context, e *domain.ActionEvent) {
			m.actionExecutions.WithLabelValues(e.Action, outcome(e.Err)).Inc()
			m.actionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
		},
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
