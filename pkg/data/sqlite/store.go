package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Store keeps trade history and replay ledgers in one sqlite file.
type Store struct {
	logger *zap.Logger
	db     *sql.DB
}

func Open(logger *zap.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// WAL lets a replay query candles while its tick cursor is open.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}

	return &Store{logger: logger, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertTrades stores ticks for market in one transaction. Ticks already present by id are
// ignored.
func (s *Store) InsertTrades(ctx context.Context, market datasource.Market, ticks []common.Tick) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO trades (exchange, symbol, time_stamp, action, price, size, liquid, id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, t := range ticks {
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("%d-%d", t.TimeStamp.UnixMicro(), i)
		}
		if _, err := stmt.ExecContext(ctx,
			market.Exchange, market.Symbol, t.TimeStamp.UnixMicro(), t.Side.String(),
			t.Price.String(), t.Size.String(), t.Liquidation, id,
		); err != nil {
			return fmt.Errorf("inserting trade %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Info describes the trades stored for a market.
type Info struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int64     `json:"count"`
}

func (s *Store) Info(ctx context.Context, market datasource.Market) (Info, error) {
	var info Info
	var start, end sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(time_stamp), MAX(time_stamp), COUNT(*) FROM trades
		WHERE exchange = ? AND symbol = ?`, market.Exchange, market.Symbol,
	).Scan(&start, &end, &info.Count)
	if err != nil {
		return info, fmt.Errorf("querying info: %w", err)
	}

	if start.Valid {
		info.Start = time.UnixMicro(start.Int64).UTC()
	}
	if end.Valid {
		info.End = time.UnixMicro(end.Int64).UTC()
	}
	return info, nil
}

// SaveResults writes the ledger of one run. Saving the same run twice keeps the first copy.
func (s *Store) SaveResults(ctx context.Context, runID uuid.UUID, records []common.OrderResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO order_results (run_id, seq, event_time, order_id, sub_id, order_type,
			post_only, create_time, status, reason, open_price, close_price, fill_price, size,
			volume, profit, fee, total_profit, position_change, tag, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID.String(), i, r.EventTime.UnixMicro(), r.OrderID, r.SubID, r.Side.String(),
			r.PostOnly, r.CreateTime.UnixMicro(), string(r.Status), string(r.Reason),
			r.OpenPrice.String(), r.ClosePrice.String(), r.FillPrice.String(), r.Size.String(),
			r.Volume.String(), r.Profit.String(), r.Fee.String(), r.TotalProfit.String(),
			r.PositionChange.String(), r.Tag, r.Message,
		); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("results saved", zap.Stringer("run_id", runID), zap.Int("records", len(records)))
	return nil
}

// Results reads back the ledger of a run in record order.
func (s *Store) Results(ctx context.Context, runID uuid.UUID) ([]common.OrderResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_time, order_id, sub_id, order_type, post_only, create_time, status, reason,
			open_price, close_price, fill_price, size, volume, profit, fee, total_profit,
			position_change, tag, message
		FROM order_results WHERE run_id = ? ORDER BY seq`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]common.OrderResult, 0)
	for rows.Next() {
		var r common.OrderResult
		var eventTime, createTime int64
		var side, status, reason string
		var prices [9]string

		if err := rows.Scan(&eventTime, &r.OrderID, &r.SubID, &side, &r.PostOnly, &createTime,
			&status, &reason, &prices[0], &prices[1], &prices[2], &prices[3], &prices[4],
			&prices[5], &prices[6], &prices[7], &prices[8], &r.Tag, &r.Message); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		if r.Side, err = common.ParseSide(side); err != nil {
			return nil, err
		}
		r.EventTime = time.UnixMicro(eventTime).UTC()
		r.CreateTime = time.UnixMicro(createTime).UTC()
		r.Status = common.OrderStatus(status)
		r.Reason = common.Reason(reason)

		targets := []*fixed.Point{&r.OpenPrice, &r.ClosePrice, &r.FillPrice, &r.Size, &r.Volume,
			&r.Profit, &r.Fee, &r.TotalProfit, &r.PositionChange}
		for i, target := range targets {
			if *target, err = fixed.Parse(prices[i]); err != nil {
				return nil, fmt.Errorf("parsing decimal %q: %w", prices[i], err)
			}
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, simulation.ErrRunNotFound
	}
	return results, nil
}
