package simulation

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

var ErrRunNotFound = errors.New("run not found")

// Result is the sealed outcome of one replay.
type Result struct {
	RunID    uuid.UUID            `json:"run_id"`
	Market   datasource.Market    `json:"market"`
	Interval time.Duration        `json:"interval"`
	Ticks    int64                `json:"ticks"`
	Clocks   int64                `json:"clocks"`
	Records  []common.OrderResult `json:"records"`
	Position common.Position      `json:"position"`
	Summary  Summary              `json:"summary"`
}

type Summary struct {
	Records         int         `json:"records"`
	Orders          int         `json:"orders"`
	Filled          int         `json:"filled"`
	PartiallyFilled int         `json:"partially_filled"`
	Expired         int         `json:"expired"`
	Rejected        int         `json:"rejected"`
	Volume          fixed.Point `json:"volume"`
	Profit          fixed.Point `json:"profit"`
	Fee             fixed.Point `json:"fee"`
	TotalProfit     fixed.Point `json:"total_profit"`
	NetPosition     fixed.Point `json:"net_position"`
}

// Summarize counts and sums the ledger. Rejections never reach the ledger and are left to the
// caller.
func Summarize(records []common.OrderResult, position common.Position) Summary {
	var s Summary
	orders := make(map[string]struct{})

	for _, r := range records {
		s.Records++
		orders[r.OrderID] = struct{}{}

		switch r.Status {
		case common.OrderStatusFilled:
			s.Filled++
		case common.OrderStatusPartiallyFilled:
			s.PartiallyFilled++
		case common.OrderStatusExpired:
			s.Expired++
		}

		s.Volume = s.Volume.Add(r.Volume)
		s.Profit = s.Profit.Add(r.Profit)
		s.Fee = s.Fee.Add(r.Fee)
	}

	s.Orders = len(orders)
	if n := len(records); n > 0 {
		s.TotalProfit = records[n-1].TotalProfit
	}
	s.NetPosition = position.NetSize()
	return s
}

func (r *Result) Print(logger *zap.Logger) {
	logger.Info("replay result",
		zap.Stringer("run_id", r.RunID),
		zap.String("market", r.Market.ID()),
		zap.Duration("interval", r.Interval),
		zap.Int64("ticks", r.Ticks),
		zap.Int64("clocks", r.Clocks),
	)

	logger.Info("order statistics",
		zap.Int("records", r.Summary.Records),
		zap.Int("orders", r.Summary.Orders),
		zap.Int("filled", r.Summary.Filled),
		zap.Int("partially_filled", r.Summary.PartiallyFilled),
		zap.Int("expired", r.Summary.Expired),
		zap.Int("rejected", r.Summary.Rejected),
	)

	logger.Info("profit and loss",
		zap.String("volume", r.Summary.Volume.String()),
		zap.String("profit", r.Summary.Profit.String()),
		zap.String("fee", r.Summary.Fee.String()),
		zap.String("total_profit", r.Summary.TotalProfit.String()),
		zap.String("net_position", r.Summary.NetPosition.String()),
	)
}
