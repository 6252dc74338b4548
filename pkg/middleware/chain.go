package middleware

import (
	"context"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/session"
	"github.com/peter-kozarec/rewind/pkg/simulation"
)

type (
	TickHandler   func(ctx context.Context, tick common.Tick, intent *common.Intent) simulation.Decision
	ClockHandler  func(ctx context.Context, t time.Time, view session.View) simulation.Decision
	UpdateHandler func(ctx context.Context, result common.OrderResult)
)

// Middleware wraps every callback of an agent.
type Middleware interface {
	WithTick(TickHandler) TickHandler
	WithClock(ClockHandler) ClockHandler
	WithUpdate(UpdateHandler) UpdateHandler
}

// Chain composes middlewares so that the first one is the outermost.
func Chain[T any](middlewares ...func(T) T) func(T) T {
	return func(handler T) T {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Wrap returns an agent whose callbacks run through middlewares before reaching agent.
func Wrap(agent simulation.Agent, middlewares ...Middleware) simulation.Agent {
	ticks := make([]func(TickHandler) TickHandler, 0, len(middlewares))
	clocks := make([]func(ClockHandler) ClockHandler, 0, len(middlewares))
	updates := make([]func(UpdateHandler) UpdateHandler, 0, len(middlewares))
	for _, m := range middlewares {
		ticks = append(ticks, m.WithTick)
		clocks = append(clocks, m.WithClock)
		updates = append(updates, m.WithUpdate)
	}

	return &wrapped{
		tick:   Chain(ticks...)(agent.OnTick),
		clock:  Chain(clocks...)(agent.OnClock),
		update: Chain(updates...)(agent.OnUpdate),
	}
}

type wrapped struct {
	tick   TickHandler
	clock  ClockHandler
	update UpdateHandler
}

func (w *wrapped) OnTick(ctx context.Context, tick common.Tick, intent *common.Intent) simulation.Decision {
	return w.tick(ctx, tick, intent)
}

func (w *wrapped) OnClock(ctx context.Context, t time.Time, view session.View) simulation.Decision {
	return w.clock(ctx, t, view)
}

func (w *wrapped) OnUpdate(ctx context.Context, result common.OrderResult) {
	w.update(ctx, result)
}
