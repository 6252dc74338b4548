package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

func p(s string) fixed.Point { return fixed.MustParse(s) }

func TestPosition_Fill(t *testing.T) {
	tests := []struct {
		name       string
		start      Position
		side       Side
		size       string
		price      string
		wantLong   string
		wantShort  string
		wantClosed string
		wantProfit string
		wantEntry  string
	}{
		{"open long from flat", Position{}, SideBuy, "10", "100", "10", "0", "0", "0", "0"},
		{"open short from flat", Position{}, SideSell, "5", "100", "0", "5", "0", "0", "0"},
		{"add to long", Position{LongSize: p("10"), LongPrice: p("100")}, SideBuy, "10", "110", "20", "0", "0", "0", "0"},
		{"partial close long", Position{LongSize: p("10"), LongPrice: p("100")}, SideSell, "4", "110", "6", "0", "4", "40", "100"},
		{"full close short", Position{ShortSize: p("10"), ShortPrice: p("100")}, SideBuy, "10", "90", "0", "0", "10", "100", "100"},
		{"doten long to short", Position{LongSize: p("10"), LongPrice: p("100")}, SideSell, "20", "95", "0", "10", "10", "-50", "100"},
		{"doten short to long", Position{ShortSize: p("10"), ShortPrice: p("100")}, SideBuy, "20", "105", "10", "0", "10", "-50", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, closed, profit, entry := tt.start.Fill(tt.side, p(tt.size), p(tt.price))

			assert.True(t, next.LongSize.Eq(p(tt.wantLong)), "long %s", next.LongSize)
			assert.True(t, next.ShortSize.Eq(p(tt.wantShort)), "short %s", next.ShortSize)
			assert.True(t, closed.Eq(p(tt.wantClosed)), "closed %s", closed)
			assert.True(t, profit.Eq(p(tt.wantProfit)), "profit %s", profit)
			assert.True(t, entry.Eq(p(tt.wantEntry)), "entry %s", entry)
		})
	}
}

func TestPosition_FillWeightedPrice(t *testing.T) {
	pos := Position{LongSize: p("10"), LongPrice: p("100")}

	next, _, _, _ := pos.Fill(SideBuy, p("10"), p("110"))
	assert.True(t, next.LongPrice.Eq(p("105")))

	next, _, _, _ = next.Fill(SideSell, p("20"), p("120"))
	assert.True(t, next.IsFlat())
	assert.True(t, next.LongPrice.IsZero())
}

func TestPosition_NetSize(t *testing.T) {
	assert.True(t, Position{LongSize: p("3")}.NetSize().Eq(p("3")))
	assert.True(t, Position{ShortSize: p("3")}.NetSize().Eq(p("-3")))
	assert.True(t, Position{}.NetSize().IsZero())
	assert.True(t, Position{}.IsFlat())
}

func TestSide_Text(t *testing.T) {
	var s Side
	assert.NoError(t, s.UnmarshalText([]byte("Sell")))
	assert.Equal(t, SideSell, s)
	assert.Equal(t, SideBuy, s.Opposite())
	assert.Error(t, s.UnmarshalText([]byte("hold")))
	assert.Equal(t, "Buy", SideBuy.String())
}
