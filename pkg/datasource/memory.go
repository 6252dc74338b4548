package datasource

import (
	"sort"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/tools/bar"
)

// MemorySource replays a tick slice that is already in memory.
type MemorySource struct {
	market Market
	ticks  []common.Tick
	idx    int
}

func NewMemorySource(market Market, ticks []common.Tick) *MemorySource {
	return &MemorySource{
		market: market,
		ticks:  ticks,
	}
}

func (s *MemorySource) Market() Market { return s.market }

func (s *MemorySource) Next() (common.Tick, error) {
	if s.idx >= len(s.ticks) {
		return common.Tick{}, ErrEof
	}
	tick := s.ticks[s.idx]
	s.idx++
	return tick, nil
}

// Rewind restarts the replay from the first tick.
func (s *MemorySource) Rewind() {
	s.idx = 0
}

func (s *MemorySource) Candles(window time.Duration, end time.Time, count int) ([]common.Candle, error) {
	return candlesFrom(s.ticks, window, end, count), nil
}

// candlesFrom aggregates a time ordered slice, scanning only the ticks inside the query range.
func candlesFrom(ticks []common.Tick, window time.Duration, end time.Time, count int) []common.Candle {
	if count <= 0 || window <= 0 {
		return nil
	}
	from, to := bar.Range(window, end, count)

	lo := sort.Search(len(ticks), func(i int) bool { return !ticks[i].TimeStamp.Before(from) })
	hi := sort.Search(len(ticks), func(i int) bool { return !ticks[i].TimeStamp.Before(to) })
	if lo >= hi {
		return []common.Candle{}
	}
	return bar.Aggregate(ticks[lo:hi], window, end, count)
}
