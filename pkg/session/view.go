package session

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// View is what an agent may read about the replay at the moment of a callback.
type View interface {
	CurrentTime() time.Time
	LongPosSize() fixed.Point
	ShortPosSize() fixed.Point
	BuyEdgePrice() fixed.Point
	SellEdgePrice() fixed.Point
	// OHLCV returns at most count complete candles, oldest first.
	OHLCV(window time.Duration, count int) []common.Candle
}
