package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"
)

var (
	errNoCPUTimes     = errors.New("monitor: no aggregate cpu times reported")
	errNoTemperatures = errors.New("monitor: no temperature sensors readable")
)

// CPUTimesSource reads cumulative CPU times for the whole host.
type CPUTimesSource struct{}

// Snapshot implements the Source interface on top of the aggregate CPU
// counters. Iowait is accounted as idle time, matching the usual
// /proc/stat reading, and guest time is left out of the busy total
// because the kernel already folds it into user time.
func (CPUTimesSource) Snapshot(ctx context.Context) (Snapshot, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cpu times: %w", err)
	}

	if len(times) == 0 {
		return Snapshot{}, errNoCPUTimes
	}

	aggregate := times[0]

	idle := aggregate.Idle + aggregate.Iowait
	busy := aggregate.User + aggregate.System + aggregate.Nice +
		aggregate.Irq + aggregate.Softirq + aggregate.Steal

	return Snapshot{Idle: idle, Total: idle + busy}, nil
}

// SensorSource reports the hottest reading across every host thermal sensor.
type SensorSource struct{}

// Max implements the TempSource interface. Partial sensor failures are
// tolerated as long as at least one reading came back.
func (SensorSource) Max(ctx context.Context) (float64, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if len(stats) == 0 && err != nil {
		return 0, fmt.Errorf("read sensors: %w", err)
	}

	return hottestReading(stats)
}

func hottestReading(stats []sensors.TemperatureStat) (float64, error) {
	hottest := math.Inf(-1)

	for _, stat := range stats {
		if math.IsNaN(stat.Temperature) {
			continue
		}

		if stat.Temperature > hottest {
			hottest = stat.Temperature
		}
	}

	if math.IsInf(hottest, -1) {
		return 0, errNoTemperatures
	}

	return hottest, nil
}
