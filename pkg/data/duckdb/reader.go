package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

var ErrInvalidSymbol = errors.New("invalid symbol")

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Reader opens markets stored as <symbol>_trades tables with the columns
// ts TIMESTAMP, side VARCHAR, price DOUBLE, size DOUBLE, liquidation BOOLEAN, id VARCHAR.
type Reader struct {
	logger         *zap.Logger
	dataSourceName string
	exchange       string
	db             *sql.DB
}

func NewReader(logger *zap.Logger, exchange, dataSourceName string) *Reader {
	return &Reader{
		logger:         logger,
		dataSourceName: dataSourceName,
		exchange:       exchange,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

// DB exposes the connection for loading data.
func (r *Reader) DB() *sql.DB {
	return r.db
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// OpenMarket replays symbol over [from, to). The rows are held by the returned source, candle
// queries are answered from the ticks it has already replayed.
func (r *Reader) OpenMarket(ctx context.Context, symbol string, from, to time.Time, options ...datasource.HistoryOption) (*Market, error) {
	if !symbolPattern.MatchString(symbol) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}

	// trades sharing a timestamp replay in id order
	query := fmt.Sprintf(`SELECT ts, side, price, size, liquidation, id FROM "%s_trades" WHERE ts >= ? AND ts < ? ORDER BY ts, id`, symbol)

	rows, err := r.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}

	market := datasource.Market{Exchange: r.exchange, Symbol: symbol}
	r.logger.Debug("market opened", zap.String("market", market.ID()))

	return &Market{
		History: datasource.NewHistory(market, &tickRows{rows: rows}, options...),
		rows:    rows,
	}, nil
}

type Market struct {
	*datasource.History
	rows *sql.Rows
}

func (m *Market) Close() error {
	return m.rows.Close()
}

type tickRows struct {
	rows *sql.Rows
}

func (t *tickRows) Next() (common.Tick, error) {
	var tick common.Tick

	if !t.rows.Next() {
		if err := t.rows.Err(); err != nil {
			return tick, fmt.Errorf("error scanning rows: %w", err)
		}
		return tick, datasource.ErrEof
	}

	var timeStamp time.Time
	var side string
	var price, size float64
	if err := t.rows.Scan(&timeStamp, &side, &price, &size, &tick.Liquidation, &tick.ID); err != nil {
		return tick, fmt.Errorf("error scanning row: %w", err)
	}

	var err error
	if tick.Side, err = common.ParseSide(side); err != nil {
		return tick, err
	}
	tick.TimeStamp = timeStamp.UTC()
	tick.Price = fixed.FromFloat64(price)
	tick.Size = fixed.FromFloat64(size)
	return tick, nil
}
