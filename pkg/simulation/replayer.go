package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/exchange/sandbox"
	"github.com/peter-kozarec/rewind/pkg/ledger"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/tools/bar"
	"github.com/peter-kozarec/rewind/pkg/utility"
)

var (
	ErrOutOfOrder      = errors.New("tick stream is not time ordered")
	ErrInvalidInterval = errors.New("clock interval must be positive")
)

// Replayer drives agents through recorded market data. It holds no per run state, so one
// Replayer may run any number of backtests, also concurrently.
type Replayer struct {
	logger *zap.Logger
	cfg    Configuration
}

func NewReplayer(logger *zap.Logger, cfg Configuration) *Replayer {
	return &Replayer{
		logger: logger,
		cfg:    cfg,
	}
}

// Run replays source into agent, firing OnClock every interval of simulated time. The returned
// result holds every ledger record in order. On error the result is still returned with all
// pending orders expired.
func (r *Replayer) Run(ctx context.Context, agent Agent, interval time.Duration, source datasource.Source) (*Result, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	market := source.Market()
	l := ledger.New(market.ID())

	ru := &run{
		logger:    r.logger.With(zap.String("market", market.ID())),
		agent:     agent,
		source:    source,
		ledger:    l,
		simulator: sandbox.NewSimulator(r.logger, l, r.cfg.simulatorOptions()...),
		session:   session.New(r.logger, source),
		result: &Result{
			RunID:    utility.NewRunID(),
			Market:   market,
			Interval: interval,
		},
	}

	start := time.Now()
	err := ru.replay(ctx, interval)
	result := ru.close()

	ru.logger.Info("replay finished",
		zap.Stringer("run_id", result.RunID),
		zap.Int64("ticks", result.Ticks),
		zap.Int64("clocks", result.Clocks),
		zap.Int("records", len(result.Records)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))

	return result, err
}

type run struct {
	logger *zap.Logger
	agent  Agent
	source datasource.Source

	ledger    *ledger.Ledger
	simulator *sandbox.Simulator
	session   *session.Session

	intent   *common.Intent
	rejected int
	result   *Result
}

func (ru *run) replay(ctx context.Context, interval time.Duration) error {
	tick, ok, err := ru.next()
	if err != nil || !ok {
		return err
	}

	nextClock := bar.Floor(tick.TimeStamp, interval).Add(interval)
	last := tick.TimeStamp

	for ok {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !nextClock.After(tick.TimeStamp) {
			if err := ru.onClock(ctx, nextClock); err != nil {
				return err
			}
			nextClock = nextClock.Add(interval)
			continue
		}

		if err := ru.onTick(ctx, tick); err != nil {
			return err
		}

		if tick, ok, err = ru.next(); err != nil {
			return err
		}
		if ok && tick.TimeStamp.Before(last) {
			return fmt.Errorf("%w: %s after %s", ErrOutOfOrder,
				tick.TimeStamp.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
		}
		last = tick.TimeStamp
	}

	return nil
}

func (ru *run) next() (common.Tick, bool, error) {
	tick, err := ru.source.Next()
	if errors.Is(err, datasource.ErrEof) {
		return tick, false, nil
	}
	if err != nil {
		return tick, false, fmt.Errorf("unable to read next tick: %w", err)
	}
	return tick, true, nil
}

func (ru *run) onTick(ctx context.Context, tick common.Tick) error {
	ru.result.Ticks++
	ru.session.Advance(tick.TimeStamp)
	ru.session.OnTick(tick)

	results, err := ru.simulator.OnTick(tick)
	if err != nil {
		return err
	}
	ru.deliver(ctx, results)

	intent := ru.intent
	ru.intent = nil

	return ru.handle(ctx, ru.agent.OnTick(ctx, tick, intent))
}

func (ru *run) onClock(ctx context.Context, t time.Time) error {
	ru.result.Clocks++
	ru.session.Advance(t)

	results, err := ru.simulator.Expire(t)
	if err != nil {
		return err
	}
	ru.deliver(ctx, results)

	return ru.handle(ctx, ru.agent.OnClock(ctx, t, ru.session.Snapshot()))
}

func (ru *run) handle(ctx context.Context, d Decision) error {
	if d.Intent != nil {
		intent := *d.Intent
		ru.intent = &intent
	}
	if d.Order == nil {
		return nil
	}

	result, err := ru.simulator.Submit(*d.Order, ru.session.Snapshot())
	if err != nil {
		return err
	}

	switch {
	case result.Rejected():
		ru.rejected++
		ru.logger.Debug("order rejected",
			zap.String("reason", string(result.Reason)),
			zap.String("tag", result.Tag))
		ru.agent.OnUpdate(ctx, result)
	case result.Status != common.OrderStatusOpen:
		ru.deliver(ctx, []common.OrderResult{result})
	}
	return nil
}

func (ru *run) deliver(ctx context.Context, results []common.OrderResult) {
	if len(results) == 0 {
		return
	}
	ru.session.SetPosition(ru.ledger.Position())
	for _, result := range results {
		ru.agent.OnUpdate(ctx, result)
	}
}

// close expires whatever is still resting and seals the result. It runs on every exit path so
// the ledger always accounts for every accepted order.
func (ru *run) close() *Result {
	// ctx may already be cancelled here.
	ctx := context.Background()

	results, err := ru.simulator.ForceExpire(ru.session.CurrentTime(), common.ReasonEndOfData)
	if err != nil {
		ru.logger.Error("unable to expire pending order", zap.Error(err))
	}
	ru.deliver(ctx, results)

	if err := ru.ledger.Verify(); err != nil {
		ru.logger.Error("ledger does not add up", zap.Error(err))
	}

	ru.result.Records = ru.ledger.Records()
	ru.result.Position = ru.ledger.Position()
	ru.result.Summary = Summarize(ru.result.Records, ru.result.Position)
	ru.result.Summary.Rejected = ru.rejected
	return ru.result
}
