package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/datasource"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// TickGenerator produces a reproducible trade stream following a geometric Brownian motion.
// The same seed always yields the same ticks.
type TickGenerator struct {
	rng *rand.Rand

	steps int64
	t     int64

	mu     float64
	sigma  float64
	deltaT float64

	avgTickInterval time.Duration
	tickVariability float64

	avgSize      float64
	sizeVariance float64

	liquidationRate float64

	priceDigits int
	sizeDigits  int

	lastTime  time.Time
	lastPrice float64
}

type Option func(*TickGenerator)

func WithTickInterval(avg time.Duration, variability float64) Option {
	return func(g *TickGenerator) {
		g.avgTickInterval = avg
		g.tickVariability = variability
	}
}

func WithSize(avg, variance float64) Option {
	return func(g *TickGenerator) {
		g.avgSize = avg
		g.sizeVariance = variance
	}
}

func WithDigits(price, size int) Option {
	return func(g *TickGenerator) {
		g.priceDigits = price
		g.sizeDigits = size
	}
}

func WithLiquidationRate(rate float64) Option {
	return func(g *TickGenerator) {
		g.liquidationRate = rate
	}
}

// NewTickGenerator creates a generator of steps ticks. mu and sigma are annualised drift and
// volatility.
func NewTickGenerator(seed int64, startTime time.Time, startPrice, mu, sigma float64, steps int64, options ...Option) *TickGenerator {
	g := &TickGenerator{
		rng:             rand.New(rand.NewSource(seed)), // #nosec G404
		steps:           steps,
		mu:              mu,
		sigma:           sigma,
		avgTickInterval: time.Second,
		tickVariability: 0.3,
		avgSize:         0.01,
		sizeVariance:    0.5,
		priceDigits:     1,
		sizeDigits:      4,
		lastTime:        startTime,
		lastPrice:       startPrice,
	}
	for _, option := range options {
		option(g)
	}

	const secondsPerYear = 365.25 * 24 * 3600
	g.deltaT = g.avgTickInterval.Seconds() / secondsPerYear
	return g
}

func (g *TickGenerator) Next() (common.Tick, error) {
	var tick common.Tick

	if g.t >= g.steps {
		return tick, datasource.ErrEof
	}
	g.t++

	z := g.rng.NormFloat64()
	g.lastPrice *= math.Exp((g.mu-0.5*g.sigma*g.sigma)*g.deltaT + g.sigma*math.Sqrt(g.deltaT)*z)
	g.lastTime = g.lastTime.Add(g.nextInterval())

	tick.TimeStamp = g.lastTime.Truncate(time.Microsecond)
	tick.Price = fixed.FromFloat64(g.lastPrice).Rescale(g.priceDigits)
	tick.Size = g.nextSize()
	tick.Side = common.SideBuy
	if z < 0 {
		tick.Side = common.SideSell
	}
	tick.Liquidation = g.liquidationRate > 0 && g.rng.Float64() < g.liquidationRate

	return tick, nil
}

func (g *TickGenerator) nextInterval() time.Duration {
	if g.tickVariability <= 0 {
		return g.avgTickInterval
	}

	avg := float64(g.avgTickInterval.Nanoseconds())
	interval := g.rng.ExpFloat64() * avg

	minInterval := avg * (1.0 - g.tickVariability)
	maxInterval := avg * (1.0 + g.tickVariability*3)
	interval = math.Max(minInterval, math.Min(maxInterval, interval))

	return time.Duration(int64(interval))
}

func (g *TickGenerator) nextSize() fixed.Point {
	size := g.avgSize * math.Exp(g.rng.NormFloat64()*g.sizeVariance)
	p := fixed.FromFloat64(size).Rescale(g.sizeDigits)
	if !p.IsPos() {
		return fixed.FromInt64(1, g.sizeDigits)
	}
	return p
}
