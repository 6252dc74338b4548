package bar

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
)

// Builder folds a time ordered tick stream into fixed width candles aligned to the epoch.
// Buckets without ticks produce no candle.
type Builder struct {
	period  time.Duration
	current common.Candle
	started bool
	onBar   func(common.Candle)
}

func NewBuilder(period time.Duration, onBar func(common.Candle)) *Builder {
	if period <= 0 {
		panic("bar period must be positive")
	}
	return &Builder{
		period: period,
		onBar:  onBar,
	}
}

func (b *Builder) OnTick(tick common.Tick) {
	start := Floor(tick.TimeStamp, b.period)

	if b.started && !start.Equal(b.current.TimeStamp) {
		b.Flush()
	}

	if !b.started {
		b.current = common.Candle{
			TimeStamp: start,
			Period:    b.period,
			Open:      tick.Price,
			High:      tick.Price,
			Low:       tick.Price,
			Close:     tick.Price,
		}
		b.started = true
	}

	if tick.Price.Gt(b.current.High) {
		b.current.High = tick.Price
	}
	if tick.Price.Lt(b.current.Low) {
		b.current.Low = tick.Price
	}
	b.current.Close = tick.Price
	b.current.Volume = b.current.Volume.Add(tick.Size)
	b.current.TradeCount++
}

// Flush emits the candle in construction, if any.
func (b *Builder) Flush() {
	if !b.started {
		return
	}
	b.started = false
	if b.onBar != nil {
		b.onBar(b.current)
	}
}

// Floor rounds t down to a multiple of period counted from the Unix epoch, in microseconds.
// time.Time.Truncate counts from year 1 and disagrees for periods such as 7m.
func Floor(t time.Time, period time.Duration) time.Time {
	w := period.Microseconds()
	if w <= 0 {
		return t.Truncate(period)
	}
	us := t.UnixMicro()
	q := us / w
	if us%w < 0 {
		q--
	}
	return time.UnixMicro(q * w).UTC()
}

// Range returns the tick interval [from, to) that holds the last count complete candles of the
// given period as of end.
func Range(period time.Duration, end time.Time, count int) (from, to time.Time) {
	to = Floor(end, period)
	from = to.Add(-time.Duration(count) * period)
	return from, to
}

// Aggregate buckets ticks into at most count complete candles ending at or before end, oldest
// first. Ticks outside Range(period, end, count) are ignored.
func Aggregate(ticks []common.Tick, period time.Duration, end time.Time, count int) []common.Candle {
	if count <= 0 || period <= 0 {
		return nil
	}

	from, to := Range(period, end, count)
	candles := make([]common.Candle, 0, count)

	b := NewBuilder(period, func(c common.Candle) {
		candles = append(candles, c)
	})
	for _, tick := range ticks {
		if tick.TimeStamp.Before(from) || !tick.TimeStamp.Before(to) {
			continue
		}
		b.OnTick(tick)
	}
	b.Flush()

	return candles
}
