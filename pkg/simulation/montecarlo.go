package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/datasource"
)

// Scenario builds the agent and the source of one Monte Carlo path. It is called once per path
// so that paths never share state.
type Scenario func(path int) (Agent, datasource.Source, error)

type MonteCarloExecutor struct {
	logger   *zap.Logger
	replayer *Replayer
	workers  int
}

func NewMonteCarloExecutor(logger *zap.Logger, replayer *Replayer, workers int) *MonteCarloExecutor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &MonteCarloExecutor{
		logger:   logger,
		replayer: replayer,
		workers:  workers,
	}
}

// Execute replays paths scenarios concurrently. Results are returned in path order. The first
// failing path cancels the remaining ones.
func (e *MonteCarloExecutor) Execute(ctx context.Context, paths int, interval time.Duration, scenario Scenario) ([]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, paths)
	errs := make([]error, paths)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results[path], errs[path] = e.execute(ctx, path, interval, scenario)
				if errs[path] != nil {
					cancel()
				}
			}
		}()
	}

feed:
	for path := 0; path < paths; path++ {
		select {
		case jobs <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// paths stopped by a failing sibling report context.Canceled, the sibling holds the cause
	var cancelled error
	for path, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			if cancelled == nil {
				cancelled = fmt.Errorf("path %d: %w", path, err)
			}
		default:
			return results, fmt.Errorf("path %d: %w", path, err)
		}
	}
	if cancelled != nil {
		return results, cancelled
	}
	for _, result := range results {
		if result == nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

func (e *MonteCarloExecutor) execute(ctx context.Context, path int, interval time.Duration, scenario Scenario) (*Result, error) {
	agent, source, err := scenario(path)
	if err != nil {
		return nil, fmt.Errorf("unable to build scenario: %w", err)
	}

	result, err := e.replayer.Run(ctx, agent, interval, source)
	if err != nil {
		return result, err
	}

	e.logger.Debug("path finished",
		zap.Int("path", path),
		zap.String("total_profit", result.Summary.TotalProfit.String()))
	return result, nil
}
