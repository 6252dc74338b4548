package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peter-kozarec/rewind/pkg/common"
)

func TestSummarize(t *testing.T) {
	records := []common.OrderResult{
		{OrderID: "0000-0000", Status: common.OrderStatusFilled, Volume: p("1000"), Fee: p("0.1"), TotalProfit: p("-0.1"), PositionChange: p("10")},
		{OrderID: "0000-0001", Status: common.OrderStatusPartiallyFilled, Volume: p("550"), Profit: p("50"), Fee: p("0.05"), TotalProfit: p("49.85"), PositionChange: p("-5")},
		{OrderID: "0000-0001", SubID: 1, Status: common.OrderStatusFilled, Volume: p("450"), Profit: p("-30"), Fee: p("0.05"), TotalProfit: p("19.8"), PositionChange: p("-5")},
		{OrderID: "0000-0002", Status: common.OrderStatusExpired, Reason: common.ReasonTimeout, TotalProfit: p("19.8")},
	}

	s := Summarize(records, common.Position{})

	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 3, s.Orders)
	assert.Equal(t, 2, s.Filled)
	assert.Equal(t, 1, s.PartiallyFilled)
	assert.Equal(t, 1, s.Expired)
	assert.True(t, s.Volume.Eq(p("2000")))
	assert.True(t, s.Profit.Eq(p("20")))
	assert.True(t, s.Fee.Eq(p("0.2")))
	assert.True(t, s.TotalProfit.Eq(p("19.8")))
	assert.True(t, s.NetPosition.IsZero())
}
