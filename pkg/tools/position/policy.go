package position

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Reversal decides what a signal against an open position does.
type Reversal int

const (
	// ReversalDoten closes the open position and opens the signalled one in one order.
	ReversalDoten Reversal = iota
	// ReversalClose only closes the open position.
	ReversalClose
	// ReversalIgnore sends the base size regardless of the open position.
	ReversalIgnore
)

func (r Reversal) String() string {
	switch r {
	case ReversalDoten:
		return "doten"
	case ReversalClose:
		return "close"
	case ReversalIgnore:
		return "ignore"
	}
	return fmt.Sprintf("Reversal(%d)", int(r))
}

func (r Reversal) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reversal) UnmarshalText(text []byte) error {
	for _, v := range []Reversal{ReversalDoten, ReversalClose, ReversalIgnore} {
		if v.String() == string(text) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown reversal %q", string(text))
}

// Policy sizes entries from directional signals.
type Policy struct {
	Size    fixed.Point   `yaml:"size"`
	Timeout time.Duration `yaml:"timeout"`

	// SuppressSameDirection drops signals in the direction of an already open position.
	SuppressSameDirection bool     `yaml:"suppress_same_direction"`
	Reversal              Reversal `yaml:"reversal"`
}

func DefaultPolicy() Policy {
	return Policy{
		Size:                  fixed.Ten,
		Timeout:               600 * time.Second,
		SuppressSameDirection: true,
		Reversal:              ReversalDoten,
	}
}

// Intent turns a signal into an unpriced order given the open long and short sizes. It reports
// false when the signal is suppressed.
func (p Policy) Intent(side common.Side, long, short fixed.Point) (common.Intent, bool) {
	same, opposite := long, short
	if side == common.SideSell {
		same, opposite = short, long
	}

	if same.IsPos() && p.SuppressSameDirection {
		return common.Intent{}, false
	}

	size := p.Size
	tag := fmt.Sprintf("Open %s", direction(side))

	if opposite.IsPos() {
		switch p.Reversal {
		case ReversalDoten:
			size = p.Size.Add(opposite)
			tag = fmt.Sprintf("Doten %s", direction(side))
		case ReversalClose:
			size = opposite
			tag = fmt.Sprintf("Close %s", direction(side.Opposite()))
		}
	}

	if !size.IsPos() {
		return common.Intent{}, false
	}

	return common.Intent{
		Side:    side,
		Size:    size,
		Timeout: p.Timeout,
		Tag:     tag,
	}, true
}

// Order is Intent priced at price.
func (p Policy) Order(side common.Side, price, long, short fixed.Point) (common.Order, bool) {
	intent, ok := p.Intent(side, long, short)
	if !ok {
		return common.Order{}, false
	}
	return intent.At(price), true
}

func direction(side common.Side) string {
	if side == common.SideBuy {
		return "Long"
	}
	return "Short"
}
