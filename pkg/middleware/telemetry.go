package middleware

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/simulation"
)

// Telemetry counts callbacks and decisions, both locally for PrintStatistics and as prometheus
// metrics labelled by market. It may be shared by concurrent replays.
type Telemetry struct {
	logger *zap.Logger
	market string

	tickEventCounter   atomic.Int64
	clockEventCounter  atomic.Int64
	updateEventCounter atomic.Int64
	orderCounter       atomic.Int64
	intentCounter      atomic.Int64
	rejectionCounter   atomic.Int64

	events    *prometheus.CounterVec
	decisions *prometheus.CounterVec
	updates   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func NewTelemetry(logger *zap.Logger, registerer prometheus.Registerer, market string) (*Telemetry, error) {
	t := &Telemetry{
		logger: logger,
		market: market,
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rewind_events_total", Help: "Agent callbacks by kind"},
			[]string{"market", "kind"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rewind_decisions_total", Help: "Orders and intents returned by the agent"},
			[]string{"market", "kind", "side"},
		),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rewind_order_updates_total", Help: "Order results delivered to the agent"},
			[]string{"market", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rewind_callback_seconds",
				Help:    "Time spent in agent callbacks",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"market", "kind"},
		),
	}

	for _, c := range []prometheus.Collector{t.events, t.decisions, t.updates, t.latency} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Telemetry) WithTick(handler TickHandler) TickHandler {
	return func(ctx context.Context, tick common.Tick, intent *common.Intent) simulation.Decision {
		t.tickEventCounter.Add(1)
		t.events.WithLabelValues(t.market, "tick").Inc()

		start := time.Now()
		d := handler(ctx, tick, intent)
		t.latency.WithLabelValues(t.market, "tick").Observe(time.Since(start).Seconds())

		t.count(d)
		return d
	}
}

func (t *Telemetry) WithClock(handler ClockHandler) ClockHandler {
	return func(ctx context.Context, now time.Time, view session.View) simulation.Decision {
		t.clockEventCounter.Add(1)
		t.events.WithLabelValues(t.market, "clock").Inc()

		start := time.Now()
		d := handler(ctx, now, view)
		t.latency.WithLabelValues(t.market, "clock").Observe(time.Since(start).Seconds())

		t.count(d)
		return d
	}
}

func (t *Telemetry) WithUpdate(handler UpdateHandler) UpdateHandler {
	return func(ctx context.Context, result common.OrderResult) {
		t.updateEventCounter.Add(1)
		if result.Rejected() {
			t.rejectionCounter.Add(1)
		}
		t.events.WithLabelValues(t.market, "update").Inc()
		t.updates.WithLabelValues(t.market, string(result.Status)).Inc()
		handler(ctx, result)
	}
}

func (t *Telemetry) count(d simulation.Decision) {
	if d.Order != nil {
		t.orderCounter.Add(1)
		t.decisions.WithLabelValues(t.market, "order", d.Order.Side.String()).Inc()
	}
	if d.Intent != nil {
		t.intentCounter.Add(1)
		t.decisions.WithLabelValues(t.market, "intent", d.Intent.Side.String()).Inc()
	}
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.String("market", t.market),
		zap.Int64("tick_events", t.tickEventCounter.Load()),
		zap.Int64("clock_events", t.clockEventCounter.Load()),
		zap.Int64("update_events", t.updateEventCounter.Load()),
		zap.Int64("orders", t.orderCounter.Load()),
		zap.Int64("intents", t.intentCounter.Load()),
		zap.Int64("rejections", t.rejectionCounter.Load()))
}
