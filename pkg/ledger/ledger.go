package ledger

import (
	"errors"
	"fmt"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

var (
	ErrOutOfOrder = errors.New("record created before the last ledger record")
	ErrRejected   = errors.New("rejected orders are not ledgered")
	ErrInvariant  = errors.New("ledger invariant violated")
)

// Ledger is the append only record of order outcomes of one run together with the position
// those outcomes imply.
type Ledger struct {
	records     []common.OrderResult
	position    common.Position
	totalProfit fixed.Point
}

func New(marketID string) *Ledger {
	return &Ledger{
		position: common.Position{MarketID: marketID},
	}
}

// Apply stamps the running total profit on r, moves the position by r.PositionChange at
// r.FillPrice and appends r.
func (l *Ledger) Apply(r common.OrderResult) (common.Position, error) {
	if r.Rejected() {
		return l.position, ErrRejected
	}
	if n := len(l.records); n > 0 && r.CreateTime.Before(l.records[n-1].CreateTime) {
		return l.position, fmt.Errorf("%w: order %s", ErrOutOfOrder, r.OrderID)
	}

	next := l.position
	if !r.PositionChange.IsZero() {
		side := common.SideBuy
		if r.PositionChange.IsNeg() {
			side = common.SideSell
		}
		next, _, _, _ = l.position.Fill(side, r.PositionChange.Abs(), r.FillPrice)
	}

	l.totalProfit = l.totalProfit.Add(r.Profit).Sub(r.Fee)
	r.TotalProfit = l.totalProfit
	l.position = next
	l.records = append(l.records, r)

	return l.position, nil
}

func (l *Ledger) Position() common.Position { return l.position }

func (l *Ledger) TotalProfit() fixed.Point { return l.totalProfit }

func (l *Ledger) Len() int { return len(l.records) }

// Last returns the most recent record.
func (l *Ledger) Last() (common.OrderResult, bool) {
	if len(l.records) == 0 {
		return common.OrderResult{}, false
	}
	return l.records[len(l.records)-1], true
}

// Records returns a copy of the ledger in append order.
func (l *Ledger) Records() []common.OrderResult {
	records := make([]common.OrderResult, len(l.records))
	copy(records, l.records)
	return records
}

// Verify recomputes the running profit and the position from scratch. After every record the
// sum of position changes so far must equal the net size of a position rebuilt from the
// executed fills alone, and the final one must equal position.
func (l *Ledger) Verify() error {
	return Verify(l.records, l.position)
}

func Verify(records []common.OrderResult, position common.Position) error {
	total := fixed.Zero
	net := fixed.Zero
	var rebuilt common.Position

	for i, r := range records {
		total = total.Add(r.Profit).Sub(r.Fee)
		if !total.Eq(r.TotalProfit) {
			return fmt.Errorf("%w: record %d total profit %s, expected %s", ErrInvariant, i, r.TotalProfit, total)
		}
		if i > 0 && r.CreateTime.Before(records[i-1].CreateTime) {
			return fmt.Errorf("%w: record %d created before record %d", ErrInvariant, i, i-1)
		}

		if r.Executed() {
			rebuilt, _, _, _ = rebuilt.Fill(r.Side, r.Size, r.FillPrice)
		}
		net = net.Add(r.PositionChange)
		if !net.Eq(rebuilt.NetSize()) {
			return fmt.Errorf("%w: record %d net position change %s, fills add up to %s", ErrInvariant, i, net, rebuilt.NetSize())
		}
	}

	if !net.Eq(position.NetSize()) {
		return fmt.Errorf("%w: net position change %s, position %s", ErrInvariant, net, position.NetSize())
	}
	return nil
}
