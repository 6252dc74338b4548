package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/tools/bar"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

const selectTrades = `
	SELECT time_stamp, action, price, size, liquid, id FROM trades
	WHERE exchange = ? AND symbol = ? AND ? <= time_stamp AND time_stamp < ?
	ORDER BY time_stamp, rowid`

// Market streams the trades of one market in [from, to) and answers candle queries from the same
// table, never reaching before from.
type Market struct {
	logger *zap.Logger
	db     *sql.DB
	ctx    context.Context
	market datasource.Market
	from   time.Time
	to     time.Time

	rows *sql.Rows
}

// OpenMarket starts a replay of market over [from, to). A zero to replays up to the last stored
// trade.
func (s *Store) OpenMarket(ctx context.Context, exchange, symbol string, from, to time.Time) (*Market, error) {
	market := datasource.Market{Exchange: exchange, Symbol: symbol}
	if to.IsZero() {
		to = time.UnixMicro(1<<62 - 1)
	}

	rows, err := s.db.QueryContext(ctx, selectTrades, exchange, symbol, from.UnixMicro(), to.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("querying trades of %s: %w", market.ID(), err)
	}

	s.logger.Debug("market opened",
		zap.String("market", market.ID()),
		zap.Time("from", from),
		zap.Time("to", to))

	return &Market{
		logger: s.logger,
		db:     s.db,
		ctx:    ctx,
		market: market,
		from:   from,
		to:     to,
		rows:   rows,
	}, nil
}

func (m *Market) Market() datasource.Market { return m.market }

func (m *Market) Next() (common.Tick, error) {
	if !m.rows.Next() {
		if err := m.rows.Err(); err != nil {
			return common.Tick{}, fmt.Errorf("reading trades: %w", err)
		}
		return common.Tick{}, datasource.ErrEof
	}
	return scanTick(m.rows)
}

func (m *Market) Candles(window time.Duration, end time.Time, count int) ([]common.Candle, error) {
	if count <= 0 || window <= 0 {
		return nil, nil
	}

	from, to := bar.Range(window, end, count)
	if from.Before(m.from) {
		from = m.from
	}
	if to.After(m.to) {
		to = m.to
	}
	if !from.Before(to) {
		return []common.Candle{}, nil
	}

	rows, err := m.db.QueryContext(m.ctx, selectTrades, m.market.Exchange, m.market.Symbol, from.UnixMicro(), to.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ticks []common.Tick
	for rows.Next() {
		tick, err := scanTick(rows)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading candles: %w", err)
	}

	return bar.Aggregate(ticks, window, end, count), nil
}

func (m *Market) Close() error {
	return m.rows.Close()
}

func scanTick(rows *sql.Rows) (common.Tick, error) {
	var tick common.Tick
	var ts int64
	var action, price, size string

	if err := rows.Scan(&ts, &action, &price, &size, &tick.Liquidation, &tick.ID); err != nil {
		return tick, fmt.Errorf("scanning trade: %w", err)
	}

	var err error
	if tick.Side, err = common.ParseSide(action); err != nil {
		return tick, err
	}
	if tick.Price, err = fixed.Parse(price); err != nil {
		return tick, fmt.Errorf("parsing price %q: %w", price, err)
	}
	if tick.Size, err = fixed.Parse(size); err != nil {
		return tick, fmt.Errorf("parsing size %q: %w", size, err)
	}
	tick.TimeStamp = time.UnixMicro(ts).UTC()
	return tick, nil
}
