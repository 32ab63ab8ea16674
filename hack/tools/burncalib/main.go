// Command burncalib measures the throughput of the burn kernel on this
// host, as batches per second on a single pinned thread. Useful when
// judging how coarse the per-batch stop check is on a given machine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cpu-estressador/pkg/burn"
)

const defaultWindow = 2 * time.Second

var errInvalidWindow = errors.New("measurement window must be positive")

type calibConfig struct {
	window time.Duration
	cpu    int
}

func main() {
	cfg := parseConfig()

	err := runCalibration(context.Background(), cfg)
	if err != nil {
		logFatal(err)
	}
}

func parseConfig() calibConfig {
	var cfg calibConfig

	flag.DurationVar(
		&cfg.window,
		"window",
		defaultWindow,
		"How long to sample the kernel throughput",
	)
	flag.IntVar(
		&cfg.cpu,
		"cpu",
		0,
		"Logical CPU to pin the probe thread to (negative skips pinning)",
	)

	flag.Parse()

	return cfg
}

func runCalibration(ctx context.Context, cfg calibConfig) error {
	if cfg.window <= 0 {
		return errInvalidWindow
	}

	calibration, err := burn.Calibrate(ctx, cfg.cpu, cfg.window)
	if err != nil {
		return fmt.Errorf("calibrate kernel: %w", err)
	}

	if calibration.PinErr != nil {
		log.Printf("warning: probe thread not pinned: %v", calibration.PinErr)
	}

	log.Printf(
		"%d batches in %v (%.0f batches/s, stop check every ~%.2fms)",
		calibration.Batches,
		calibration.Window,
		calibration.BatchesPerSecond,
		batchPeriodMillis(calibration.BatchesPerSecond),
	)

	return nil
}

func batchPeriodMillis(batchesPerSecond float64) float64 {
	if batchesPerSecond <= 0 {
		return 0
	}

	return 1000 / batchesPerSecond
}

func logFatal(err error) {
	log.Printf("error: %v", err)
	os.Exit(1)
}
