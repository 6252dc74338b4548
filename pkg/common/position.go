package common

import (
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Position tracks both sides of one market. Prices are volume weighted entry prices.
type Position struct {
	MarketID   string      `json:"market_id"`
	LongSize   fixed.Point `json:"long_size"`
	LongPrice  fixed.Point `json:"long_price"`
	ShortSize  fixed.Point `json:"short_size"`
	ShortPrice fixed.Point `json:"short_price"`
}

// NetSize is LongSize - ShortSize.
func (p Position) NetSize() fixed.Point {
	return p.LongSize.Sub(p.ShortSize)
}

func (p Position) IsFlat() bool {
	return p.LongSize.IsZero() && p.ShortSize.IsZero()
}

// Size returns the open size held on the given side.
func (p Position) Size(side Side) fixed.Point {
	if side == SideBuy {
		return p.LongSize
	}
	return p.ShortSize
}

// Fill executes size at price on the given side. The opposite side is closed first and any
// remainder opens (or adds to) the requested side. It returns the resulting position, the closed
// amount, the realised profit on that amount and the average entry price of what was closed.
func (p Position) Fill(side Side, size, price fixed.Point) (next Position, closed, profit, entry fixed.Point) {
	next = p

	switch side {
	case SideBuy:
		closed = fixed.Min(size, p.ShortSize)
		if closed.IsPos() {
			entry = p.ShortPrice
			profit = p.ShortPrice.Sub(price).Mul(closed)
			next.ShortSize = p.ShortSize.Sub(closed)
			if next.ShortSize.IsZero() {
				next.ShortPrice = fixed.Zero
			}
		}
		if open := size.Sub(closed); open.IsPos() {
			next.LongPrice = weighted(p.LongSize, p.LongPrice, open, price)
			next.LongSize = p.LongSize.Add(open)
		}
	case SideSell:
		closed = fixed.Min(size, p.LongSize)
		if closed.IsPos() {
			entry = p.LongPrice
			profit = price.Sub(p.LongPrice).Mul(closed)
			next.LongSize = p.LongSize.Sub(closed)
			if next.LongSize.IsZero() {
				next.LongPrice = fixed.Zero
			}
		}
		if open := size.Sub(closed); open.IsPos() {
			next.ShortPrice = weighted(p.ShortSize, p.ShortPrice, open, price)
			next.ShortSize = p.ShortSize.Add(open)
		}
	}

	return next, closed, profit, entry
}

func weighted(size, price, addSize, addPrice fixed.Point) fixed.Point {
	if size.IsZero() {
		return addPrice
	}
	return size.Mul(price).Add(addSize.Mul(addPrice)).Div(size.Add(addSize))
}
