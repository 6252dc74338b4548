package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type failingCandles struct{}

func (failingCandles) Candles(time.Duration, time.Time, int) ([]common.Candle, error) {
	return nil, errors.New("database is closed")
}

func trade(offset time.Duration, price string, side common.Side) common.Tick {
	return common.Tick{
		TimeStamp: base.Add(offset),
		Price:     fixed.MustParse(price),
		Size:      fixed.One,
		Side:      side,
	}
}

func TestSession_OnTickEdges(t *testing.T) {
	tests := []struct {
		name     string
		ticks    []common.Tick
		wantBuy  string
		wantSell string
	}{
		{"buy trade sets sell edge", []common.Tick{trade(0, "101", common.SideBuy)}, "0", "101"},
		{"sell trade sets buy edge and uncrosses", []common.Tick{trade(0, "99", common.SideSell)}, "99", "99"},
		{"both sides", []common.Tick{trade(0, "99", common.SideSell), trade(time.Second, "101", common.SideBuy)}, "99", "101"},
		{"crossed book", []common.Tick{trade(0, "101", common.SideBuy), trade(time.Second, "102", common.SideSell)}, "102", "102"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(zap.NewNop(), nil)
			for _, tick := range tt.ticks {
				s.OnTick(tick)
			}
			assert.True(t, s.BuyEdgePrice().Eq(fixed.MustParse(tt.wantBuy)), "buy edge %s", s.BuyEdgePrice())
			assert.True(t, s.SellEdgePrice().Eq(fixed.MustParse(tt.wantSell)), "sell edge %s", s.SellEdgePrice())
		})
	}
}

func TestSession_Advance(t *testing.T) {
	s := New(zap.NewNop(), nil)

	s.Advance(base.Add(time.Minute))
	assert.Equal(t, base.Add(time.Minute), s.CurrentTime())

	s.Advance(base)
	assert.Equal(t, base.Add(time.Minute), s.CurrentTime())
}

func TestSession_SnapshotIsFrozen(t *testing.T) {
	s := New(zap.NewNop(), nil)
	s.Advance(base)
	s.OnTick(trade(0, "100", common.SideSell))
	s.SetPosition(common.Position{LongSize: fixed.Ten})

	view := s.Snapshot()

	s.Advance(base.Add(time.Hour))
	s.OnTick(trade(time.Hour, "90", common.SideSell))
	s.SetPosition(common.Position{})

	assert.Equal(t, base, view.CurrentTime())
	assert.True(t, view.BuyEdgePrice().Eq(fixed.MustParse("100")))
	assert.True(t, view.LongPosSize().Eq(fixed.Ten))
	assert.True(t, view.ShortPosSize().IsZero())
}

func TestSession_OHLCV(t *testing.T) {
	ticks := []common.Tick{
		trade(0, "100", common.SideBuy),
		trade(time.Hour, "110", common.SideBuy),
		trade(2*time.Hour, "120", common.SideBuy),
		trade(3*time.Hour, "130", common.SideBuy),
	}
	s := New(zap.NewNop(), datasource.NewMemorySource(datasource.Market{Symbol: "X"}, ticks))

	s.Advance(base.Add(2 * time.Hour))
	candles := s.Snapshot().OHLCV(time.Hour, 6)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Open.Eq(fixed.MustParse("100")))
	assert.True(t, candles[1].Open.Eq(fixed.MustParse("110")))

	assert.Empty(t, s.Snapshot().OHLCV(time.Hour, 0))
	assert.Empty(t, s.Snapshot().OHLCV(0, 6))
}

func TestSession_OHLCVError(t *testing.T) {
	s := New(zap.NewNop(), failingCandles{})
	s.Advance(base)

	candles := s.Snapshot().OHLCV(time.Hour, 6)
	assert.NotNil(t, candles)
	assert.Empty(t, candles)
}
