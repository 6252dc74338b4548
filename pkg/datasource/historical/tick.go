package historical

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

const (
	flagSell int32 = 1 << iota
	flagLiquidation
)

// BinaryTick is the on disk layout of one trade, little endian, 32 bytes.
type BinaryTick struct {
	TimeStamp int64 // unix microseconds
	Price     float64
	Size      float64
	Flags     int32
	_         int32
}

func (b BinaryTick) ToModelTick(tick *common.Tick) {
	tick.TimeStamp = time.UnixMicro(b.TimeStamp).UTC()
	tick.Price = fixed.FromFloat64(b.Price)
	tick.Size = fixed.FromFloat64(b.Size)
	tick.Side = common.SideBuy
	if b.Flags&flagSell != 0 {
		tick.Side = common.SideSell
	}
	tick.Liquidation = b.Flags&flagLiquidation != 0
}

func FromModelTick(tick common.Tick) BinaryTick {
	price, _ := tick.Price.Float64()
	size, _ := tick.Size.Float64()

	b := BinaryTick{
		TimeStamp: tick.TimeStamp.UnixMicro(),
		Price:     price,
		Size:      size,
	}
	if tick.Side == common.SideSell {
		b.Flags |= flagSell
	}
	if tick.Liquidation {
		b.Flags |= flagLiquidation
	}
	return b
}
