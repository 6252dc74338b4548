package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var market = datasource.Market{Exchange: "FTX", Symbol: "BTC-PERP"}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(zap.NewNop(), filepath.Join(t.TempDir(), "rewind.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func trade(offset time.Duration, price string, side common.Side, id string) common.Tick {
	return common.Tick{
		TimeStamp: base.Add(offset),
		Price:     fixed.MustParse(price),
		Size:      fixed.MustParse("0.25"),
		Side:      side,
		ID:        id,
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ticks := []common.Tick{
		trade(10*time.Minute, "100.5", common.SideBuy, "a"),
		trade(20*time.Minute, "101", common.SideSell, "b"),
		trade(70*time.Minute, "99", common.SideSell, "c"),
		trade(130*time.Minute, "102.25", common.SideBuy, "d"),
	}
	ticks[2].Liquidation = true
	require.NoError(t, s.InsertTrades(context.Background(), market, ticks))
}

func TestStore_InsertTradesIgnoresDuplicates(t *testing.T) {
	s := openStore(t)
	seed(t, s)
	seed(t, s)

	info, err := s.Info(context.Background(), market)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Count)
	assert.Equal(t, base.Add(10*time.Minute), info.Start)
	assert.Equal(t, base.Add(130*time.Minute), info.End)

	empty, err := s.Info(context.Background(), datasource.Market{Exchange: "FTX", Symbol: "ETH-PERP"})
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.Start.IsZero())
}

func TestStore_OpenMarketStreamsRange(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	m, err := s.OpenMarket(context.Background(), market.Exchange, market.Symbol, base.Add(20*time.Minute), base.Add(130*time.Minute))
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	assert.Equal(t, market, m.Market())

	var ticks []common.Tick
	for {
		tick, err := m.Next()
		if errors.Is(err, datasource.ErrEof) {
			break
		}
		require.NoError(t, err)
		ticks = append(ticks, tick)
	}

	require.Len(t, ticks, 2)
	assert.Equal(t, "b", ticks[0].ID)
	assert.Equal(t, common.SideSell, ticks[0].Side)
	assert.True(t, ticks[0].Price.Eq(fixed.MustParse("101")))
	assert.True(t, ticks[0].Size.Eq(fixed.MustParse("0.25")))
	assert.Equal(t, "c", ticks[1].ID)
	assert.True(t, ticks[1].Liquidation)
	assert.Equal(t, base.Add(70*time.Minute), ticks[1].TimeStamp)
}

func TestStore_MarketCandles(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	m, err := s.OpenMarket(context.Background(), market.Exchange, market.Symbol, base, time.Time{})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	candles, err := m.Candles(time.Hour, base.Add(2*time.Hour+30*time.Minute), 3)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, base, candles[0].TimeStamp)
	assert.True(t, candles[0].Open.Eq(fixed.MustParse("100.5")))
	assert.True(t, candles[0].High.Eq(fixed.MustParse("101")))
	assert.True(t, candles[0].Close.Eq(fixed.MustParse("101")))
	assert.True(t, candles[0].Volume.Eq(fixed.MustParse("0.5")))
	assert.Equal(t, base.Add(time.Hour), candles[1].TimeStamp)
	assert.Equal(t, int64(1), candles[1].TradeCount)

	// the bar holding 02:10 is still open at 02:30
	for _, c := range candles {
		assert.True(t, c.TimeStamp.Before(base.Add(2*time.Hour)))
	}
}

func TestStore_MarketCandlesRespectFrom(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	m, err := s.OpenMarket(context.Background(), market.Exchange, market.Symbol, base.Add(time.Hour), time.Time{})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	candles, err := m.Candles(time.Hour, base.Add(2*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, base.Add(time.Hour), candles[0].TimeStamp)
}

func TestStore_Results(t *testing.T) {
	s := openStore(t)
	runID := uuid.Must(uuid.NewV7())

	records := []common.OrderResult{
		{
			EventTime:      base.Add(time.Minute),
			OrderID:        "0000-0001",
			Side:           common.SideBuy,
			CreateTime:     base,
			Status:         common.OrderStatusPartiallyFilled,
			OpenPrice:      fixed.MustParse("100"),
			FillPrice:      fixed.MustParse("100"),
			Size:           fixed.MustParse("4"),
			Volume:         fixed.MustParse("400"),
			Fee:            fixed.MustParse("0.04"),
			TotalProfit:    fixed.MustParse("-0.04"),
			PositionChange: fixed.MustParse("4"),
			Tag:            "Open Long",
		},
		{
			EventTime:  base.Add(10 * time.Minute),
			OrderID:    "0000-0001",
			SubID:      1,
			Side:       common.SideBuy,
			CreateTime: base,
			Status:     common.OrderStatusExpired,
			Reason:     common.ReasonTimeout,
			Size:       fixed.MustParse("6"),
			Tag:        "Open Long",
		},
	}

	require.NoError(t, s.SaveResults(context.Background(), runID, records))

	got, err := s.Results(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].EventTime, got[0].EventTime)
	assert.Equal(t, records[0].OrderID, got[0].OrderID)
	assert.Equal(t, common.OrderStatusPartiallyFilled, got[0].Status)
	assert.True(t, got[0].TotalProfit.Eq(records[0].TotalProfit))
	assert.True(t, got[0].PositionChange.Eq(records[0].PositionChange))
	assert.Equal(t, 1, got[1].SubID)
	assert.Equal(t, common.ReasonTimeout, got[1].Reason)
	assert.True(t, got[1].FillPrice.IsZero())

	_, err = s.Results(context.Background(), uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, simulation.ErrRunNotFound)
}
