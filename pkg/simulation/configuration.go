package simulation

import (
	"github.com/peter-kozarec/rewind/pkg/exchange/sandbox"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

type Configuration struct {
	FeeRate   fixed.Point
	TouchFill bool
}

func DefaultConfiguration() Configuration {
	return Configuration{
		FeeRate: sandbox.DefaultFeeRate,
	}
}

func (c Configuration) simulatorOptions() []sandbox.Option {
	options := []sandbox.Option{sandbox.WithFeeRate(c.FeeRate)}
	if c.TouchFill {
		options = append(options, sandbox.WithTouchFill())
	}
	return options
}
