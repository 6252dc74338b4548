package sandbox

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/ledger"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

type restingOrder struct {
	order      common.Order
	id         string
	subID      int
	createTime time.Time
	expireAt   time.Time
	remaining  fixed.Point
}

// Simulator matches agent orders against the replayed trades and records every outcome in the
// ledger. At most one order rests at a time.
type Simulator struct {
	logger *zap.Logger
	ledger *ledger.Ledger

	feeHandler FeeHandler
	touchFill  bool

	orderIndex int64
	resting    *restingOrder
}

func NewSimulator(logger *zap.Logger, l *ledger.Ledger, options ...Option) *Simulator {
	s := &Simulator{
		logger:     logger,
		ledger:     l,
		feeHandler: rateFee(DefaultFeeRate),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Pending returns the resting order, if any.
func (s *Simulator) Pending() (common.Order, bool) {
	if s.resting == nil {
		return common.Order{}, false
	}
	return s.resting.order, true
}

// Submit validates order and either fills it against the current edge, rests it, or rejects it.
// Rejections and resting acknowledgements leave the ledger untouched.
func (s *Simulator) Submit(order common.Order, view session.View) (common.OrderResult, error) {
	now := view.CurrentTime()

	if !order.Side.Valid() || !order.Size.IsPos() || !order.Price.IsPos() {
		return s.reject(order, now, common.ReasonInvalidParameters,
			fmt.Sprintf("invalid order: side %s price %s size %s", order.Side, order.Price, order.Size)), nil
	}
	if s.resting != nil {
		return s.reject(order, now, common.ReasonBusy,
			fmt.Sprintf("order %s is still pending", s.resting.id)), nil
	}

	edge, marketable := s.marketable(order, view)
	if marketable && order.PostOnly {
		return s.reject(order, now, common.ReasonPostOnly,
			fmt.Sprintf("post only order would take liquidity at %s", edge)), nil
	}

	r := &restingOrder{
		order:      order,
		id:         s.nextOrderID(),
		createTime: now,
		expireAt:   now.Add(order.Timeout),
		remaining:  order.Size,
	}

	if marketable {
		return s.execute(r, order.Size, edge, now)
	}

	s.resting = r
	s.logger.Debug("order resting",
		zap.String("order_id", r.id),
		zap.Stringer("side", order.Side),
		zap.Stringer("price", order.Price),
		zap.Stringer("size", order.Size),
		zap.Time("expire_at", r.expireAt))

	return common.OrderResult{
		EventTime:  now,
		OrderID:    r.id,
		Side:       order.Side,
		PostOnly:   order.PostOnly,
		CreateTime: now,
		Status:     common.OrderStatusOpen,
		Size:       order.Size,
		Tag:        order.Tag,
	}, nil
}

// OnTick expires the resting order when its timeout elapsed and otherwise matches it against
// the trade.
func (s *Simulator) OnTick(tick common.Tick) ([]common.OrderResult, error) {
	if s.resting == nil {
		return nil, nil
	}

	results, err := s.Expire(tick.TimeStamp)
	if err != nil || len(results) > 0 {
		return results, err
	}

	if !s.crosses(tick) {
		return nil, nil
	}

	qty := fixed.Min(s.resting.remaining, tick.Size)
	if !qty.IsPos() {
		return nil, nil
	}

	result, err := s.execute(s.resting, qty, s.resting.order.Price, tick.TimeStamp)
	if err != nil {
		return nil, err
	}
	return []common.OrderResult{result}, nil
}

// Expire ends the resting order with a timeout once now reaches its expiry time.
func (s *Simulator) Expire(now time.Time) ([]common.OrderResult, error) {
	if s.resting == nil || now.Before(s.resting.expireAt) {
		return nil, nil
	}
	return s.expire(now, common.ReasonTimeout)
}

// ForceExpire ends the resting order regardless of its timeout.
func (s *Simulator) ForceExpire(now time.Time, reason common.Reason) ([]common.OrderResult, error) {
	if s.resting == nil {
		return nil, nil
	}
	return s.expire(now, reason)
}

func (s *Simulator) expire(now time.Time, reason common.Reason) ([]common.OrderResult, error) {
	r := s.resting
	s.resting = nil

	result := common.OrderResult{
		EventTime:  now,
		OrderID:    r.id,
		SubID:      r.subID,
		Side:       r.order.Side,
		PostOnly:   r.order.PostOnly,
		CreateTime: r.createTime,
		Status:     common.OrderStatusExpired,
		Reason:     reason,
		Size:       r.remaining,
		Tag:        r.order.Tag,
	}

	s.logger.Debug("order expired",
		zap.String("order_id", r.id),
		zap.String("reason", string(reason)),
		zap.Stringer("remaining", r.remaining))

	recorded, err := s.record(result)
	if err != nil {
		return nil, err
	}
	return []common.OrderResult{recorded}, nil
}

// execute fills qty of r at price. The fill closes the opposite side of the position first.
func (s *Simulator) execute(r *restingOrder, qty, price fixed.Point, now time.Time) (common.OrderResult, error) {
	side := r.order.Side
	_, closed, profit, entry := s.ledger.Position().Fill(side, qty, price)

	change := qty
	if side == common.SideSell {
		change = qty.Neg()
	}

	r.remaining = r.remaining.Sub(qty)
	status := common.OrderStatusFilled
	if r.remaining.IsPos() {
		status = common.OrderStatusPartiallyFilled
	}

	result := common.OrderResult{
		EventTime:      now,
		OrderID:        r.id,
		SubID:          r.subID,
		Side:           side,
		PostOnly:       r.order.PostOnly,
		CreateTime:     r.createTime,
		Status:         status,
		OpenPrice:      price,
		FillPrice:      price,
		Size:           qty,
		Volume:         price.Mul(qty),
		Profit:         profit,
		Fee:            s.feeHandler(side, price, qty),
		PositionChange: change,
		Tag:            r.order.Tag,
	}
	if closed.IsPos() {
		result.OpenPrice = entry
		result.ClosePrice = price
	}

	if status == common.OrderStatusFilled {
		s.resting = nil
	} else {
		s.resting = r
		r.subID++
	}

	s.logger.Debug("order executed",
		zap.String("order_id", r.id),
		zap.Int("sub_id", result.SubID),
		zap.String("status", string(status)),
		zap.Stringer("price", price),
		zap.Stringer("size", qty),
		zap.Stringer("closed", closed))

	return s.record(result)
}

func (s *Simulator) record(result common.OrderResult) (common.OrderResult, error) {
	if _, err := s.ledger.Apply(result); err != nil {
		return result, fmt.Errorf("unable to record order %s: %w", result.OrderID, err)
	}
	recorded, _ := s.ledger.Last()
	return recorded, nil
}

func (s *Simulator) reject(order common.Order, now time.Time, reason common.Reason, message string) common.OrderResult {
	s.logger.Debug("order rejected",
		zap.String("reason", string(reason)),
		zap.String("message", message))

	return common.OrderResult{
		EventTime:  now,
		Side:       order.Side,
		PostOnly:   order.PostOnly,
		CreateTime: now,
		Status:     common.OrderStatusRejected,
		Reason:     reason,
		FillPrice:  order.Price,
		Size:       order.Size,
		Tag:        order.Tag,
		Message:    message,
	}
}

// marketable reports whether order can take liquidity at the current edge and at what price.
func (s *Simulator) marketable(order common.Order, view session.View) (fixed.Point, bool) {
	if order.Side == common.SideBuy {
		edge := view.SellEdgePrice()
		return edge, edge.IsPos() && edge.Lte(order.Price)
	}
	edge := view.BuyEdgePrice()
	return edge, edge.IsPos() && edge.Gte(order.Price)
}

// crosses reports whether a trade reached the resting limit price.
func (s *Simulator) crosses(tick common.Tick) bool {
	limit := s.resting.order.Price
	if s.resting.order.Side == common.SideBuy {
		return tick.Price.Lt(limit) || (s.touchFill && tick.Price.Eq(limit))
	}
	return tick.Price.Gt(limit) || (s.touchFill && tick.Price.Eq(limit))
}

func (s *Simulator) nextOrderID() string {
	s.orderIndex++
	return fmt.Sprintf("%04d-%04d", s.orderIndex/10000, s.orderIndex%10000)
}
