package historical

import (
	"errors"
	"fmt"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
)

const invalidIndex = -1

// TickReader streams the ticks of a binary tick file that fall in [from, to].
type TickReader struct {
	source *Source[BinaryTick]

	from int64
	to   int64
	idx  int64
}

func NewTickReader(source *Source[BinaryTick], from, to time.Time) *TickReader {
	return &TickReader{
		source: source,
		from:   from.UnixMicro(),
		to:     to.UnixMicro(),
		idx:    invalidIndex,
	}
}

func (t *TickReader) Next() (common.Tick, error) {
	var tick common.Tick
	var binTick BinaryTick

	if t.idx == invalidIndex {
		if err := t.lookupStartIndex(); err != nil {
			return tick, err
		}
	}

	if err := t.source.Read(t.idx, &binTick); err != nil {
		if errors.Is(err, datasource.ErrEof) {
			return tick, err
		}
		return tick, fmt.Errorf("error reading entry at index %d: %w", t.idx, err)
	}
	t.idx++

	if binTick.TimeStamp > t.to {
		return tick, datasource.ErrEof
	}

	binTick.ToModelTick(&tick)
	return tick, nil
}

func (t *TickReader) lookupStartIndex() error {
	entryCount, err := t.source.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}

	var entry BinaryTick

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		if err := t.source.Read(mid, &entry); err != nil {
			return fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < t.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	// low == entryCount means every tick precedes from; Read reports ErrEof from there.
	t.idx = low
	return nil
}

// Market is an open binary tick file bound to one market.
type Market struct {
	*datasource.History
	source *Source[BinaryTick]
}

// OpenMarket maps the file and returns a replayable source for [from, to].
func OpenMarket(market datasource.Market, path string, from, to time.Time, options ...datasource.HistoryOption) (*Market, error) {
	source := NewSource[BinaryTick](path)
	if err := source.Open(); err != nil {
		return nil, err
	}
	return &Market{
		History: datasource.NewHistory(market, NewTickReader(source, from, to), options...),
		source:  source,
	}, nil
}

func (m *Market) Close() error {
	return m.source.Close()
}
