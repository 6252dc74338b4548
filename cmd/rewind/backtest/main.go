package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/cmd/rewind"
	"github.com/peter-kozarec/rewind/internal/cfg"
	"github.com/peter-kozarec/rewind/internal/dbg"
	"github.com/peter-kozarec/rewind/internal/strategy"
	"github.com/peter-kozarec/rewind/pkg/api"
	"github.com/peter-kozarec/rewind/pkg/data/db/psql"
	"github.com/peter-kozarec/rewind/pkg/data/duckdb"
	"github.com/peter-kozarec/rewind/pkg/data/sqlite"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/datasource/historical"
	"github.com/peter-kozarec/rewind/pkg/datasource/synthetic"
	"github.com/peter-kozarec/rewind/pkg/middleware"
	"github.com/peter-kozarec/rewind/pkg/simulation"
)

func main() {
	configPath := flag.String("config", DefaultConfigPath, "path to the backtest configuration")
	flag.Parse()

	c, err := cfg.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := dbg.NewLogger(c.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info(fmt.Sprintf("rewind %s", rewind.Version))
	defer logger.Info("done")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	flags, err := parseMonitorFlags(c.App.Monitor)
	if err != nil {
		logger.Fatal("invalid monitor flags", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	market := datasource.Market{Exchange: c.Source.Exchange, Symbol: c.Source.Symbol}
	telemetry, err := middleware.NewTelemetry(logger, registry, market.ID())
	if err != nil {
		logger.Fatal("error registering telemetry", zap.Error(err))
	}
	defer telemetry.PrintStatistics()

	newAgent := func() simulation.Agent {
		return middleware.Wrap(
			strategy.NewBreakout(logger, c.Strategy, c.Policy),
			telemetry,
			middleware.NewMonitor(logger, flags),
		)
	}

	replayer := simulation.NewReplayer(logger, c.Replay.Simulation())

	var results []*simulation.Result
	if c.Replay.Paths > 1 {
		executor := simulation.NewMonteCarloExecutor(logger, replayer, c.Replay.Workers)
		results, err = executor.Execute(ctx, c.Replay.Paths, c.Replay.Interval,
			func(path int) (simulation.Agent, datasource.Source, error) {
				return newAgent(), syntheticSource(c, market, int64(path)), nil
			})
	} else {
		var result *simulation.Result
		result, err = runOnce(ctx, logger, c, market, replayer, newAgent())
		if result != nil {
			results = append(results, result)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("error during replay", zap.Error(err))
	}

	runs := api.NewRuns()
	for _, result := range results {
		if result == nil {
			continue
		}
		result.Print(logger)
		runs.Put(result)
	}

	exportCtx, exportCancel := context.WithTimeout(context.Background(), ExportTimeout)
	defer exportCancel()
	if err := export(exportCtx, logger, c.Export, results); err != nil {
		logger.Error("error exporting results", zap.Error(err))
	}

	if c.App.Listen != "" {
		serve(ctx, logger, c.App.Listen, api.NewServer(logger, runs, registry))
	}
}

func runOnce(ctx context.Context, logger *zap.Logger, c *cfg.Config, market datasource.Market, replayer *simulation.Replayer, agent simulation.Agent) (*simulation.Result, error) {
	horizon := datasource.WithHorizon(c.Strategy.Window * time.Duration(c.Strategy.Bars+1))
	to := c.Source.To
	if to.IsZero() {
		to = OpenEnd
	}

	switch c.Source.Kind {
	case cfg.SourceSQLite:
		store, err := sqlite.Open(logger, c.Source.Path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()

		m, err := store.OpenMarket(ctx, market.Exchange, market.Symbol, c.Source.From, to)
		if err != nil {
			return nil, err
		}
		defer func() { _ = m.Close() }()
		return replayer.Run(ctx, agent, c.Replay.Interval, m)

	case cfg.SourceBinary:
		m, err := historical.OpenMarket(market, c.Source.Path, c.Source.From, to, horizon)
		if err != nil {
			return nil, err
		}
		defer func() { _ = m.Close() }()
		return replayer.Run(ctx, agent, c.Replay.Interval, m)

	case cfg.SourceDuckDB:
		reader := duckdb.NewReader(logger, market.Exchange, c.Source.Path)
		if err := reader.Connect(); err != nil {
			return nil, err
		}
		defer func() { _ = reader.Close() }()

		m, err := reader.OpenMarket(ctx, market.Symbol, c.Source.From, to, horizon)
		if err != nil {
			return nil, err
		}
		defer func() { _ = m.Close() }()
		return replayer.Run(ctx, agent, c.Replay.Interval, m)

	default:
		return replayer.Run(ctx, agent, c.Replay.Interval, syntheticSource(c, market, 0))
	}
}

func syntheticSource(c *cfg.Config, market datasource.Market, path int64) datasource.Source {
	s := c.Source.Synthetic
	start := c.Source.From
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	gen := synthetic.NewTickGenerator(s.Seed+path, start, s.Price, s.Mu, s.Sigma, s.Steps,
		synthetic.WithTickInterval(s.TickInterval, 0.5),
		synthetic.WithSize(s.Size, 0.4))

	return datasource.NewHistory(market, gen, datasource.WithHorizon(c.Strategy.Window*time.Duration(c.Strategy.Bars+1)))
}

func export(ctx context.Context, logger *zap.Logger, c cfg.Export, results []*simulation.Result) error {
	if len(results) == 0 {
		return nil
	}

	if c.JSON != "" {
		var payload any = results
		if len(results) == 1 {
			payload = results[0]
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.JSON, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.JSON, err)
		}
		logger.Info("results written", zap.String("path", c.JSON))
	}

	if c.SQLite != "" {
		store, err := sqlite.Open(logger, c.SQLite)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		for _, r := range results {
			if err := store.SaveResults(ctx, r.RunID, r.Records); err != nil {
				return err
			}
		}
	}

	if c.Postgres.Enabled() {
		db, err := psql.Connect(ctx, c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.DB)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer func() { _ = db.Close() }()

		for _, r := range results {
			if err := psql.InsertOrderResults(ctx, db, r.RunID, r.Market, r.Records); err != nil {
				return err
			}
		}
		logger.Info("results exported to postgres", zap.Int("runs", len(results)))
	}

	return nil
}

func serve(ctx context.Context, logger *zap.Logger, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving results", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("error serving results", zap.Error(err))
	}
}
