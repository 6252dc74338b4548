package simulation

import (
	"context"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/session"
)

// Decision is what a callback hands back to the replayer. Order is submitted right away, Intent
// is passed to the next OnTick call.
type Decision struct {
	Order  *common.Order
	Intent *common.Intent
}

func Place(order common.Order) Decision {
	return Decision{Order: &order}
}

func Defer(intent common.Intent) Decision {
	return Decision{Intent: &intent}
}

func (d Decision) IsZero() bool {
	return d.Order == nil && d.Intent == nil
}

type Agent interface {
	OnTick(ctx context.Context, tick common.Tick, intent *common.Intent) Decision
	OnClock(ctx context.Context, t time.Time, view session.View) Decision
	OnUpdate(ctx context.Context, result common.OrderResult)
}

// NoopAgent can be embedded by agents that only care about some callbacks.
type NoopAgent struct{}

func (NoopAgent) OnTick(context.Context, common.Tick, *common.Intent) Decision { return Decision{} }

func (NoopAgent) OnClock(context.Context, time.Time, session.View) Decision { return Decision{} }

func (NoopAgent) OnUpdate(context.Context, common.OrderResult) {}
