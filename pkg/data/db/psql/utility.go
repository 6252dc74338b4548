package psql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
)

func Connect(ctx context.Context, host, port, user, pass, db string) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, pass, db)
	dbConn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return dbConn, nil
}

const createOrderResults = `
	CREATE TABLE IF NOT EXISTS bt_order_results (
		run_id          UUID NOT NULL,
		seq             INTEGER NOT NULL,
		market          TEXT NOT NULL,
		event_time      TIMESTAMPTZ NOT NULL,
		order_id        TEXT NOT NULL,
		sub_id          INTEGER NOT NULL,
		order_type      TEXT NOT NULL,
		create_time     TIMESTAMPTZ NOT NULL,
		status          TEXT NOT NULL,
		reason          TEXT NOT NULL,
		open_price      NUMERIC NOT NULL,
		close_price     NUMERIC NOT NULL,
		fill_price      NUMERIC NOT NULL,
		size            NUMERIC NOT NULL,
		volume          NUMERIC NOT NULL,
		profit          NUMERIC NOT NULL,
		fee             NUMERIC NOT NULL,
		total_profit    NUMERIC NOT NULL,
		position_change NUMERIC NOT NULL,
		tag             TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);`

func InsertOrderResults(ctx context.Context, db *sql.DB, runID uuid.UUID, market datasource.Market, records []common.OrderResult) error {
	if _, err := db.ExecContext(ctx, createOrderResults); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO bt_order_results (
		run_id,
		seq,
		market,
		event_time,
		order_id,
		sub_id,
		order_type,
		create_time,
		status,
		reason,
		open_price,
		close_price,
		fill_price,
		size,
		volume,
		profit,
		fee,
		total_profit,
		position_change,
		tag
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (run_id, seq) DO NOTHING;
	`

	for i, r := range records {
		_, err := tx.ExecContext(
			ctx,
			query,
			runID.String(),
			i,
			market.ID(),
			r.EventTime,
			r.OrderID,
			r.SubID,
			r.Side.String(),
			r.CreateTime,
			string(r.Status),
			string(r.Reason),
			r.OpenPrice.String(),
			r.ClosePrice.String(),
			r.FillPrice.String(),
			r.Size.String(),
			r.Volume.String(),
			r.Profit.String(),
			r.Fee.String(),
			r.TotalProfit.String(),
			r.PositionChange.String(),
			r.Tag,
		)
		if err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	return tx.Commit()
}
