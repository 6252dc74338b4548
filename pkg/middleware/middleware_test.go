package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

func TestChain(t *testing.T) {
	type handler func(int) int

	add10 := func(h handler) handler {
		return func(n int) int { return h(n) + 10 }
	}
	multiply2 := func(h handler) handler {
		return func(n int) int { return h(n) * 2 }
	}
	base := func(n int) int { return n }

	assert.Equal(t, 20, Chain(add10, multiply2)(base)(5))
	assert.Equal(t, 30, Chain(multiply2, add10)(base)(5))
	assert.Equal(t, 5, Chain[handler]()(base)(5))
}

type stubAgent struct {
	simulation.NoopAgent
	updates int
}

func (s *stubAgent) OnTick(_ context.Context, tick common.Tick, intent *common.Intent) simulation.Decision {
	if intent != nil {
		return simulation.Place(intent.At(tick.Price))
	}
	return simulation.Decision{}
}

func (s *stubAgent) OnClock(context.Context, time.Time, session.View) simulation.Decision {
	return simulation.Defer(common.Intent{Side: common.SideSell, Size: fixed.One, Timeout: time.Minute})
}

func (s *stubAgent) OnUpdate(context.Context, common.OrderResult) {
	s.updates++
}

type emptyView struct{}

func (emptyView) CurrentTime() time.Time                    { return time.Time{} }
func (emptyView) LongPosSize() fixed.Point                  { return fixed.Zero }
func (emptyView) ShortPosSize() fixed.Point                 { return fixed.Zero }
func (emptyView) BuyEdgePrice() fixed.Point                 { return fixed.Zero }
func (emptyView) SellEdgePrice() fixed.Point                { return fixed.Zero }
func (emptyView) OHLCV(time.Duration, int) []common.Candle { return nil }

func drive(agent simulation.Agent) {
	ctx := context.Background()
	d := agent.OnClock(ctx, time.Unix(0, 0), emptyView{})
	agent.OnTick(ctx, common.Tick{Price: fixed.Hundred, Size: fixed.One}, d.Intent)
	agent.OnTick(ctx, common.Tick{Price: fixed.Hundred, Size: fixed.One}, nil)
	agent.OnUpdate(ctx, common.OrderResult{Status: common.OrderStatusFilled})
	agent.OnUpdate(ctx, common.OrderResult{Status: common.OrderStatusRejected, Reason: common.ReasonBusy})
}

func TestTelemetry(t *testing.T) {
	registry := prometheus.NewRegistry()
	telemetry, err := NewTelemetry(zap.NewNop(), registry, "test/BTCUSD")
	require.NoError(t, err)

	inner := &stubAgent{}
	drive(Wrap(inner, telemetry))

	assert.Equal(t, 2, inner.updates)
	assert.Equal(t, int64(2), telemetry.tickEventCounter.Load())
	assert.Equal(t, int64(1), telemetry.clockEventCounter.Load())
	assert.Equal(t, int64(1), telemetry.orderCounter.Load())
	assert.Equal(t, int64(1), telemetry.intentCounter.Load())
	assert.Equal(t, int64(1), telemetry.rejectionCounter.Load())

	assert.Equal(t, 2.0, testutil.ToFloat64(telemetry.events.WithLabelValues("test/BTCUSD", "tick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(telemetry.decisions.WithLabelValues("test/BTCUSD", "order", "Sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(telemetry.updates.WithLabelValues("test/BTCUSD", "Rejected")))

	_, err = NewTelemetry(zap.NewNop(), registry, "test/BTCUSD")
	assert.Error(t, err)
}

func TestMonitor(t *testing.T) {
	tests := []struct {
		name   string
		flags  MonitorFlags
		events int
	}{
		{"none", MonitorNone, 0},
		{"ticks", MonitorTicks, 2},
		{"clocks", MonitorClocks, 1},
		{"decisions", MonitorDecisions, 2},
		{"rejections", MonitorRejections, 1},
		{"updates", MonitorUpdates, 2},
		{"all", MonitorAll, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			inner := &stubAgent{}
			drive(Wrap(inner, NewMonitor(zap.New(core), tt.flags)))

			assert.Equal(t, 2, inner.updates)
			assert.Equal(t, tt.events, logs.Len())
		})
	}
}
