package datasource

import (
	"errors"
	"fmt"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
)

var ErrEof = errors.New("EOF")

// Market identifies the instrument a source replays. It is returned by the open operation of
// every store and carried by the source from then on.
type Market struct {
	Exchange string `json:"exchange" yaml:"exchange"`
	Symbol   string `json:"symbol" yaml:"symbol"`
}

func (m Market) ID() string {
	if m.Exchange == "" {
		return m.Symbol
	}
	return fmt.Sprintf("%s/%s", m.Exchange, m.Symbol)
}

type TickSource interface {
	// Next returns the next tick in non-decreasing time order, or ErrEof.
	Next() (common.Tick, error)
}

type CandleSource interface {
	// Candles returns at most count complete candles of the given window ending at or before
	// end, oldest first.
	Candles(window time.Duration, end time.Time, count int) ([]common.Candle, error)
}

type Source interface {
	TickSource
	CandleSource
	Market() Market
}
