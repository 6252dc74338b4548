package common

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

type OrderStatus string
type Reason string

const (
	OrderStatusOpen            OrderStatus = "Open"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusExpired         OrderStatus = "Expired"
	OrderStatusRejected        OrderStatus = "Rejected"
)

const (
	ReasonNone              Reason = ""
	ReasonTimeout           Reason = "Timeout"
	ReasonEndOfData         Reason = "EndOfData"
	ReasonBusy              Reason = "Busy"
	ReasonInvalidParameters Reason = "InvalidParameters"
	ReasonPostOnly          Reason = "PostOnly"
)

// OrderResult is one ledger record.
type OrderResult struct {
	EventTime      time.Time   `json:"event_time"`
	OrderID        string      `json:"order_id"`
	SubID          int         `json:"sub_id"`
	Side           Side        `json:"order_type"`
	PostOnly       bool        `json:"post_only"`
	CreateTime     time.Time   `json:"create_time"`
	Status         OrderStatus `json:"status"`
	Reason         Reason      `json:"reason,omitempty"`
	OpenPrice      fixed.Point `json:"open_price"`
	ClosePrice     fixed.Point `json:"close_price"`
	FillPrice      fixed.Point `json:"fill_price"`
	Size           fixed.Point `json:"size"`
	Volume         fixed.Point `json:"volume"`
	Profit         fixed.Point `json:"profit"`
	Fee            fixed.Point `json:"fee"`
	TotalProfit    fixed.Point `json:"total_profit"`
	PositionChange fixed.Point `json:"position_change"`
	Tag            string      `json:"tag,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// Rejected reports whether the record was refused before touching the ledger.
func (r OrderResult) Rejected() bool {
	return r.Status == OrderStatusRejected
}

// Executed reports whether the record moved the position.
func (r OrderResult) Executed() bool {
	return r.Status == OrderStatusFilled || r.Status == OrderStatusPartiallyFilled
}
