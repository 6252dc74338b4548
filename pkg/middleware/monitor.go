package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/simulation"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone  MonitorFlags = 0
	MonitorTicks MonitorFlags = 1 << iota
	MonitorClocks
	MonitorDecisions
	MonitorUpdates
	MonitorRejections
	MonitorAll = MonitorTicks | MonitorClocks | MonitorDecisions | MonitorUpdates | MonitorRejections
)

// Monitor logs the callbacks selected by its flags.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0
}

func (m *Monitor) WithTick(handler TickHandler) TickHandler {
	return func(ctx context.Context, tick common.Tick, intent *common.Intent) simulation.Decision {
		if m.enabled(MonitorTicks) {
			m.logger.Info("event",
				zap.Time("tick", tick.TimeStamp),
				zap.Stringer("side", tick.Side),
				zap.Stringer("price", tick.Price),
				zap.Stringer("size", tick.Size),
				zap.Bool("intent", intent != nil))
		}
		d := handler(ctx, tick, intent)
		m.decision(tick.TimeStamp, d)
		return d
	}
}

func (m *Monitor) WithClock(handler ClockHandler) ClockHandler {
	return func(ctx context.Context, t time.Time, view session.View) simulation.Decision {
		if m.enabled(MonitorClocks) {
			m.logger.Info("event",
				zap.Time("clock", t),
				zap.Stringer("buy_edge", view.BuyEdgePrice()),
				zap.Stringer("sell_edge", view.SellEdgePrice()),
				zap.Stringer("long", view.LongPosSize()),
				zap.Stringer("short", view.ShortPosSize()))
		}
		d := handler(ctx, t, view)
		m.decision(t, d)
		return d
	}
}

func (m *Monitor) WithUpdate(handler UpdateHandler) UpdateHandler {
	return func(ctx context.Context, result common.OrderResult) {
		if m.enabled(MonitorUpdates) || (result.Rejected() && m.enabled(MonitorRejections)) {
			m.logger.Info("event",
				zap.Time("update", result.EventTime),
				zap.String("order_id", result.OrderID),
				zap.Int("sub_id", result.SubID),
				zap.String("status", string(result.Status)),
				zap.String("reason", string(result.Reason)),
				zap.Stringer("fill_price", result.FillPrice),
				zap.Stringer("size", result.Size))
		}
		handler(ctx, result)
	}
}

func (m *Monitor) decision(t time.Time, d simulation.Decision) {
	if !m.enabled(MonitorDecisions) {
		return
	}
	if d.Order != nil {
		m.logger.Info("decision",
			zap.Time("time", t),
			zap.Stringer("side", d.Order.Side),
			zap.Stringer("price", d.Order.Price),
			zap.Stringer("size", d.Order.Size),
			zap.String("tag", d.Order.Tag))
	}
	if d.Intent != nil {
		m.logger.Info("decision",
			zap.Time("time", t),
			zap.Stringer("intent", d.Intent.Side),
			zap.Stringer("size", d.Intent.Size),
			zap.String("tag", d.Intent.Tag))
	}
}
