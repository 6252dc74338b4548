package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/internal/dbg"
	"github.com/peter-kozarec/rewind/pkg/data/sqlite"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/datasource/historical"
)

func dumpBinary(logger *zap.Logger, out string, inputs []string) error {
	w, err := historical.Create(out)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		ticks, err := readTradesFile(in)
		if err != nil {
			_ = w.Close()
			_ = os.Remove(out)
			return err
		}
		for _, tick := range ticks {
			if err := w.Write(tick); err != nil {
				_ = w.Close()
				_ = os.Remove(out)
				return err
			}
		}
		logger.Info("dump finished", zap.String("file", in), zap.Int("ticks", len(ticks)))
	}

	logger.Info("binary file written", zap.String("path", out), zap.Int64("ticks", w.Count()))
	return w.Close()
}

func dumpSQLite(ctx context.Context, logger *zap.Logger, out string, market datasource.Market, inputs []string) error {
	store, err := sqlite.Open(logger, out)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, in := range inputs {
		ticks, err := readTradesFile(in)
		if err != nil {
			return err
		}
		if err := store.InsertTrades(ctx, market, ticks); err != nil {
			return err
		}
		logger.Info("dump finished", zap.String("file", in), zap.Int("ticks", len(ticks)))
	}

	info, err := store.Info(ctx, market)
	if err != nil {
		return err
	}
	logger.Info("trades stored",
		zap.String("market", market.ID()),
		zap.Time("start", info.Start),
		zap.Time("end", info.End),
		zap.Int64("count", info.Count))
	return nil
}

func main() {
	exchange := flag.String("exchange", "", "exchange name")
	symbol := flag.String("symbol", "", "symbol")
	out := flag.String("out", "", "output file, .bin writes a binary tick file, anything else a sqlite database")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	inputs := flag.Args()
	if *symbol == "" || *out == "" || len(inputs) == 0 {
		logger.Fatal("usage: dumpit -symbol SYMBOL [-exchange EXCHANGE] -out FILE trades.csv...")
	}

	var err error
	if strings.EqualFold(filepath.Ext(*out), ".bin") {
		err = dumpBinary(logger, *out, inputs)
	} else {
		err = dumpSQLite(context.Background(), logger, *out, datasource.Market{Exchange: *exchange, Symbol: *symbol}, inputs)
	}
	if err != nil {
		logger.Fatal("failed to dump", zap.Error(err))
	}
	logger.Info("done")
}
