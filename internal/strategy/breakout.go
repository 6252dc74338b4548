package strategy

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/tools/position"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
	"github.com/peter-kozarec/rewind/pkg/utility/math"
)

type BreakoutConfig struct {
	Window time.Duration `yaml:"window"`
	Bars   int           `yaml:"bars"`
	K      fixed.Point   `yaml:"k"`

	// Deferred hands the signal to the next tick and prices it there instead of at the edge.
	Deferred bool `yaml:"deferred"`
}

func DefaultBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		Window: 2 * time.Hour,
		Bars:   6,
		K:      fixed.MustParse("1.6"),
	}
}

// Breakout trades a bar whose wick reaches further from the open than K times the average range
// of the bars before it. A long lower wick buys, a long upper wick sells.
type Breakout struct {
	logger *zap.Logger
	cfg    BreakoutConfig
	policy position.Policy
}

func NewBreakout(logger *zap.Logger, cfg BreakoutConfig, policy position.Policy) *Breakout {
	return &Breakout{
		logger: logger,
		cfg:    cfg,
		policy: policy,
	}
}

func (b *Breakout) OnClock(_ context.Context, t time.Time, view session.View) simulation.Decision {
	side, ok := b.signal(view.OHLCV(b.cfg.Window, b.cfg.Bars))
	if !ok {
		return simulation.Decision{}
	}

	intent, ok := b.policy.Intent(side, view.LongPosSize(), view.ShortPosSize())
	if !ok {
		b.logger.Debug("signal suppressed", zap.Time("time", t), zap.Stringer("side", side))
		return simulation.Decision{}
	}

	if b.cfg.Deferred {
		return simulation.Defer(intent)
	}

	price := view.BuyEdgePrice()
	if side == common.SideSell {
		price = view.SellEdgePrice()
	}
	if !price.IsPos() {
		b.logger.Debug("no edge price yet", zap.Time("time", t), zap.Stringer("side", side))
		return simulation.Decision{}
	}

	return simulation.Place(intent.At(price))
}

func (b *Breakout) OnTick(_ context.Context, tick common.Tick, intent *common.Intent) simulation.Decision {
	if intent == nil {
		return simulation.Decision{}
	}
	return simulation.Place(intent.At(tick.Price))
}

func (b *Breakout) OnUpdate(_ context.Context, result common.OrderResult) {
	b.logger.Info("order update",
		zap.String("order_id", result.OrderID),
		zap.Stringer("side", result.Side),
		zap.String("status", string(result.Status)),
		zap.String("reason", string(result.Reason)),
		zap.String("size", result.Size.String()),
		zap.String("fill_price", result.FillPrice.String()),
		zap.String("total_profit", result.TotalProfit.String()),
		zap.String("tag", result.Tag))
}

func (b *Breakout) signal(candles []common.Candle) (common.Side, bool) {
	if b.cfg.Bars < 2 || len(candles) < b.cfg.Bars {
		return 0, false
	}

	latest := candles[len(candles)-1]
	ranges := make([]fixed.Point, 0, len(candles)-1)
	for _, c := range candles[:len(candles)-1] {
		ranges = append(ranges, c.Range())
	}
	threshold := math.Mean(ranges).Mul(b.cfg.K)

	switch {
	case latest.Open.Sub(latest.Low).Gt(threshold):
		return common.SideBuy, true
	case latest.High.Sub(latest.Open).Gt(threshold):
		return common.SideSell, true
	}
	return 0, false
}
