package datasource

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
)

// History turns a forward only tick stream into a Source by remembering what it has replayed.
// Candle queries are answered from the remembered ticks, so they can never see ticks that were
// not yet returned by Next.
type History struct {
	source  TickSource
	market  Market
	horizon time.Duration
	ticks   []common.Tick
}

type HistoryOption func(*History)

// WithHorizon drops remembered ticks older than the horizon measured from the latest tick.
func WithHorizon(horizon time.Duration) HistoryOption {
	return func(h *History) {
		h.horizon = horizon
	}
}

func NewHistory(market Market, source TickSource, options ...HistoryOption) *History {
	h := &History{
		source: source,
		market: market,
	}
	for _, option := range options {
		option(h)
	}
	return h
}

func (h *History) Market() Market { return h.market }

func (h *History) Next() (common.Tick, error) {
	tick, err := h.source.Next()
	if err != nil {
		return tick, err
	}
	h.ticks = append(h.ticks, tick)
	h.trim(tick.TimeStamp)
	return tick, nil
}

func (h *History) Candles(window time.Duration, end time.Time, count int) ([]common.Candle, error) {
	return candlesFrom(h.ticks, window, end, count), nil
}

func (h *History) trim(now time.Time) {
	if h.horizon <= 0 {
		return
	}
	cutoff := now.Add(-h.horizon)
	n := 0
	for n < len(h.ticks) && h.ticks[n].TimeStamp.Before(cutoff) {
		n++
	}
	if n > 0 && n >= len(h.ticks)/2 {
		h.ticks = append(h.ticks[:0], h.ticks[n:]...)
	}
}
