package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Session is the replay state behind the View. Only the scheduler mutates it, and only between
// callbacks.
type Session struct {
	logger  *zap.Logger
	candles datasource.CandleSource

	now           time.Time
	position      common.Position
	buyEdgePrice  fixed.Point
	sellEdgePrice fixed.Point
}

func New(logger *zap.Logger, candles datasource.CandleSource) *Session {
	return &Session{
		logger:  logger,
		candles: candles,
	}
}

// Advance moves the session clock. Time never moves backwards.
func (s *Session) Advance(t time.Time) {
	if t.After(s.now) {
		s.now = t
	}
}

// OnTick updates the edge prices from a trade. A buy aggressor lifts the ask, a sell aggressor
// hits the bid. A crossed book is uncrossed onto the bid.
func (s *Session) OnTick(tick common.Tick) {
	if tick.Side == common.SideBuy {
		s.sellEdgePrice = tick.Price
	} else {
		s.buyEdgePrice = tick.Price
	}
	if s.sellEdgePrice.Lt(s.buyEdgePrice) {
		s.sellEdgePrice = s.buyEdgePrice
	}
}

func (s *Session) SetPosition(position common.Position) {
	s.position = position
}

func (s *Session) CurrentTime() time.Time     { return s.now }
func (s *Session) Position() common.Position  { return s.position }
func (s *Session) BuyEdgePrice() fixed.Point  { return s.buyEdgePrice }
func (s *Session) SellEdgePrice() fixed.Point { return s.sellEdgePrice }

// Snapshot freezes the current state into a View.
func (s *Session) Snapshot() View {
	return snapshot{
		logger:        s.logger,
		candles:       s.candles,
		now:           s.now,
		position:      s.position,
		buyEdgePrice:  s.buyEdgePrice,
		sellEdgePrice: s.sellEdgePrice,
	}
}

type snapshot struct {
	logger  *zap.Logger
	candles datasource.CandleSource

	now           time.Time
	position      common.Position
	buyEdgePrice  fixed.Point
	sellEdgePrice fixed.Point
}

func (s snapshot) CurrentTime() time.Time     { return s.now }
func (s snapshot) LongPosSize() fixed.Point   { return s.position.LongSize }
func (s snapshot) ShortPosSize() fixed.Point  { return s.position.ShortSize }
func (s snapshot) BuyEdgePrice() fixed.Point  { return s.buyEdgePrice }
func (s snapshot) SellEdgePrice() fixed.Point { return s.sellEdgePrice }

func (s snapshot) OHLCV(window time.Duration, count int) []common.Candle {
	if s.candles == nil || window <= 0 || count <= 0 {
		return []common.Candle{}
	}
	candles, err := s.candles.Candles(window, s.now, count)
	if err != nil {
		s.logger.Warn("unable to query candles",
			zap.Duration("window", window),
			zap.Int("count", count),
			zap.Time("end", s.now),
			zap.Error(err))
		return []common.Candle{}
	}
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles
}
