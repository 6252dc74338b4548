package datasource

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ticksEvery(step time.Duration, prices ...string) []common.Tick {
	ticks := make([]common.Tick, 0, len(prices))
	for i, price := range prices {
		ticks = append(ticks, common.Tick{
			TimeStamp: base.Add(time.Duration(i) * step),
			Price:     fixed.MustParse(price),
			Size:      fixed.One,
		})
	}
	return ticks
}

func TestMarket_ID(t *testing.T) {
	assert.Equal(t, "bybit/BTCUSDT", Market{Exchange: "bybit", Symbol: "BTCUSDT"}.ID())
	assert.Equal(t, "BTCUSDT", Market{Symbol: "BTCUSDT"}.ID())
}

func TestMemorySource_Next(t *testing.T) {
	s := NewMemorySource(Market{Symbol: "X"}, ticksEvery(time.Second, "1", "2"))

	for _, want := range []string{"1", "2"} {
		tick, err := s.Next()
		require.NoError(t, err)
		assert.True(t, tick.Price.Eq(fixed.MustParse(want)))
	}

	_, err := s.Next()
	assert.True(t, errors.Is(err, ErrEof))

	s.Rewind()
	tick, err := s.Next()
	require.NoError(t, err)
	assert.True(t, tick.Price.Eq(fixed.One))
}

func TestMemorySource_Candles(t *testing.T) {
	s := NewMemorySource(Market{Symbol: "X"}, ticksEvery(30*time.Second, "1", "2", "3", "4", "5", "6"))

	candles, err := s.Candles(time.Minute, base.Add(2*time.Minute+10*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Open.Eq(fixed.MustParse("1")))
	assert.True(t, candles[0].Close.Eq(fixed.MustParse("2")))
	assert.True(t, candles[1].Open.Eq(fixed.MustParse("3")))

	candles, err = s.Candles(time.Minute, base.Add(10*time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, candles)

	candles, err = s.Candles(time.Minute, base.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestHistory_OnlyReplayedTicks(t *testing.T) {
	h := NewHistory(Market{Symbol: "X"}, NewMemorySource(Market{Symbol: "X"}, ticksEvery(30*time.Second, "1", "2", "3", "4")))

	_, err := h.Next()
	require.NoError(t, err)

	candles, err := h.Candles(time.Minute, base.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1), candles[0].TradeCount)

	for i := 0; i < 3; i++ {
		_, err := h.Next()
		require.NoError(t, err)
	}
	_, err = h.Next()
	assert.True(t, errors.Is(err, ErrEof))

	candles, err = h.Candles(time.Minute, base.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(2), candles[1].TradeCount)
}

func TestHistory_Horizon(t *testing.T) {
	src := NewMemorySource(Market{Symbol: "X"}, ticksEvery(time.Minute, "1", "2", "3", "4", "5", "6"))
	h := NewHistory(src.Market(), src, WithHorizon(2*time.Minute))

	for i := 0; i < 6; i++ {
		_, err := h.Next()
		require.NoError(t, err)
	}

	candles, err := h.Candles(time.Minute, base.Add(6*time.Minute), 10)
	require.NoError(t, err)
	require.NotEmpty(t, candles)
	assert.False(t, candles[0].TimeStamp.Before(base.Add(2*time.Minute)))
	assert.True(t, candles[len(candles)-1].Close.Eq(fixed.MustParse("6")))
}
