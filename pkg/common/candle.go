package common

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Candle is an OHLCV aggregate of the ticks in [TimeStamp, TimeStamp+Period).
type Candle struct {
	TimeStamp  time.Time     `json:"ts"`
	Period     time.Duration `json:"period"`
	Open       fixed.Point   `json:"open"`
	High       fixed.Point   `json:"high"`
	Low        fixed.Point   `json:"low"`
	Close      fixed.Point   `json:"close"`
	Volume     fixed.Point   `json:"volume"`
	TradeCount int64         `json:"trade_count"`
}

func (c Candle) End() time.Time {
	return c.TimeStamp.Add(c.Period)
}

// Range is High - Low.
func (c Candle) Range() fixed.Point {
	return c.High.Sub(c.Low)
}
