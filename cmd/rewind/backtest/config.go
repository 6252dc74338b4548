package main

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/rewind/pkg/middleware"
)

const (
	DefaultConfigPath = "backtest.yaml"
	ExportTimeout     = 30 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

// OpenEnd stands in for a missing end of the replay range.
var OpenEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

var monitorFlagNames = map[string]middleware.MonitorFlags{
	"ticks":      middleware.MonitorTicks,
	"clocks":     middleware.MonitorClocks,
	"decisions":  middleware.MonitorDecisions,
	"updates":    middleware.MonitorUpdates,
	"rejections": middleware.MonitorRejections,
	"all":        middleware.MonitorAll,
}

func parseMonitorFlags(names []string) (middleware.MonitorFlags, error) {
	flags := middleware.MonitorNone
	for _, name := range names {
		f, ok := monitorFlagNames[name]
		if !ok {
			return flags, fmt.Errorf("unknown monitor flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}
