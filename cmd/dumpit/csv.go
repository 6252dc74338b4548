package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// readTrades parses a trades CSV with the header
// time_stamp,action,price,size[,liquid[,id]]. time_stamp is either RFC 3339 or integer
// microseconds since the epoch. The result is ordered by time, rows with equal times keep file
// order.
func readTrades(r io.Reader) ([]common.Tick, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var ticks []common.Tick
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 fields, got %d", line, len(record))
		}

		tick, err := parseTrade(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ticks = append(ticks, tick)
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].TimeStamp.Before(ticks[j].TimeStamp)
	})
	return ticks, nil
}

func parseTrade(record []string) (common.Tick, error) {
	var tick common.Tick
	var err error

	if tick.TimeStamp, err = parseTime(record[0]); err != nil {
		return tick, err
	}
	if tick.Side, err = common.ParseSide(record[1]); err != nil {
		return tick, err
	}
	if tick.Price, err = fixed.Parse(record[2]); err != nil {
		return tick, fmt.Errorf("price: %w", err)
	}
	if tick.Size, err = fixed.Parse(record[3]); err != nil {
		return tick, fmt.Errorf("size: %w", err)
	}
	if len(record) > 4 && record[4] != "" {
		if tick.Liquidation, err = strconv.ParseBool(record[4]); err != nil {
			return tick, fmt.Errorf("liquid: %w", err)
		}
	}
	if len(record) > 5 {
		tick.ID = record[5]
	}
	return tick, nil
}

func parseTime(v string) (time.Time, error) {
	if us, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMicro(us).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return t, fmt.Errorf("time_stamp: %w", err)
	}
	return t.UTC(), nil
}

func readTradesFile(path string) ([]common.Tick, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return readTrades(f)
}
