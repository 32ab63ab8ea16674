// Package cpuinfo discovers the host CPU topology used to size and
// describe a stress run.
package cpuinfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
)

// Info describes the host processor for the startup log.
type Info struct {
	Logical   int
	Physical  int
	ModelName string
	Mhz       float64
}

//nolint:gochecknoglobals // replaceable for tests
var (
	countFunc = cpu.CountsWithContext
	infoFunc  = cpu.InfoWithContext
)

// Logical returns the number of logical CPUs. It falls back to the
// runtime's view when the host query fails and never reports below one.
func Logical(ctx context.Context) int {
	count, err := countFunc(ctx, true)
	if err != nil || count < 1 {
		count = runtime.NumCPU()
	}

	if count < 1 {
		count = 1
	}

	return count
}

// Describe collects processor details for logging. Failures degrade to
// whatever could be read; the returned Info is always usable.
func Describe(ctx context.Context) Info {
	info := Info{Logical: Logical(ctx)}

	physical, err := countFunc(ctx, false)
	if err == nil && physical > 0 {
		info.Physical = physical
	}

	stats, err := infoFunc(ctx)
	if err == nil && len(stats) > 0 {
		info.ModelName = stats[0].ModelName
		info.Mhz = stats[0].Mhz
	}

	return info
}
