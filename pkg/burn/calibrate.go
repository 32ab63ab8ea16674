package burn

import (
	"context"
	"errors"
	"runtime"
	"time"
)

// Calibration reports the measured throughput of the burn kernel on a
// single OS thread.
type Calibration struct {
	Batches          int
	Window           time.Duration
	BatchesPerSecond float64
	// PinErr records a failed affinity pin. The measurement still ran,
	// scheduled wherever the OS placed the thread.
	PinErr error
}

var errInvalidWindow = errors.New("burn: calibration window must be positive")

// Calibrate runs the kernel on the calling goroutine, locked to its OS
// thread, until the window elapses or the context is cancelled. A
// non-negative cpu index pins the thread first; pin failures are
// reported in the result rather than aborting the measurement.
func Calibrate(ctx context.Context, cpu int, window time.Duration) (Calibration, error) {
	if window <= 0 {
		return Calibration{}, errInvalidWindow
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	calibration := Calibration{Window: window}

	if cpu >= 0 {
		calibration.PinErr = pinToCPU(cpu)
	}

	start := time.Now()
	deadline := start.Add(window)
	x := seed

	for time.Now().Before(deadline) && ctx.Err() == nil {
		x = batch(x)
		publish(x)
		calibration.Batches++
	}

	elapsed := time.Since(start)
	if elapsed > 0 {
		calibration.BatchesPerSecond = float64(calibration.Batches) / elapsed.Seconds()
	}

	return calibration, nil
}
