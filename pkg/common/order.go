package common

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Order is a limit order returned by an agent callback.
type Order struct {
	Side     Side          `json:"side"`
	Price    fixed.Point   `json:"price"`
	Size     fixed.Point   `json:"size"`
	Timeout  time.Duration `json:"timeout"`
	Tag      string        `json:"tag,omitempty"`
	PostOnly bool          `json:"post_only,omitempty"`
}

// Intent is a decision taken in one callback and carried to the next tick callback,
// where the agent turns it into an Order priced off that tick.
type Intent struct {
	Side    Side          `json:"side"`
	Size    fixed.Point   `json:"size"`
	Timeout time.Duration `json:"timeout"`
	Tag     string        `json:"tag,omitempty"`
}

// At prices the intent as an order.
func (i Intent) At(price fixed.Point) Order {
	return Order{
		Side:    i.Side,
		Price:   price,
		Size:    i.Size,
		Timeout: i.Timeout,
		Tag:     i.Tag,
	}
}
