package sandbox

import (
	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// DefaultFeeRate is charged on filled notional unless overridden.
var DefaultFeeRate = fixed.FromInt(1, 4)

type Option func(*Simulator)
type FeeHandler func(side common.Side, price, size fixed.Point) fixed.Point

// WithFeeRate charges rate × price × size on every fill.
func WithFeeRate(rate fixed.Point) Option {
	return func(s *Simulator) {
		s.feeHandler = rateFee(rate)
	}
}

func WithFeeHandler(feeHandler FeeHandler) Option {
	return func(s *Simulator) {
		s.feeHandler = feeHandler
	}
}

// WithTouchFill fills resting orders on trades printed at the limit price. By default a trade
// must go through the limit.
func WithTouchFill() Option {
	return func(s *Simulator) {
		s.touchFill = true
	}
}

func rateFee(rate fixed.Point) FeeHandler {
	return func(_ common.Side, price, size fixed.Point) fixed.Point {
		return price.Mul(size).Mul(rate)
	}
}
