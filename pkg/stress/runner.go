// Package stress coordinates a single burn run. It arms the duration
// timer, funnels every stop trigger into one cancellation, consumes the
// monitor stream and joins the workers before reporting.
package stress

import (
	"context"
	"errors"
	"math"
	"time"

	"cpu-estressador/pkg/burn"
	"cpu-estressador/pkg/monitor"
)

// Cause identifies why a run stopped.
type Cause string

const (
	// CauseDurationElapsed marks a run that completed its full duration.
	CauseDurationElapsed Cause = "duration-elapsed"
	// CauseInterrupted marks a run stopped by the caller, typically a signal.
	CauseInterrupted Cause = "interrupted"
	// CauseTemperatureLimit marks a run stopped by the thermal guard.
	CauseTemperatureLimit Cause = "temperature-limit"
)

// Burner abstracts the worker pool driven by a run.
type Burner interface {
	Start(ctx context.Context)
	Wait()
	Workers() int
	Statuses() []burn.Status
}

// Sampler abstracts the observation stream consumed during a run.
type Sampler interface {
	Run(ctx context.Context) <-chan monitor.Observation
}

// Config defines one stress run.
type Config struct {
	// Duration is how long the burn should last. Must be positive.
	Duration time.Duration
	// TempLimit stops the run early once any sensor reaches this many
	// degrees Celsius. Zero or negative disables the guard.
	TempLimit float64
}

var (
	errBurnerRequired  = errors.New("stress: burner is required")
	errInvalidDuration = errors.New("stress: duration must be positive")

	errDurationElapsed  = errors.New("stress: duration elapsed")
	errTemperatureLimit = errors.New("stress: temperature limit reached")
)

// Runner owns one stress run.
type Runner struct {
	cfg      Config
	burner   Burner
	sampler  Sampler
	recorder *monitor.Recorder
}

// NewRunner validates the wiring for a run. The sampler may be nil, in
// which case the run proceeds without host monitoring.
func NewRunner(cfg Config, burner Burner, sampler Sampler) (*Runner, error) {
	if burner == nil {
		return nil, errBurnerRequired
	}

	if cfg.Duration <= 0 {
		return nil, errInvalidDuration
	}

	runner := new(Runner)
	runner.cfg = cfg
	runner.burner = burner
	runner.sampler = sampler
	runner.recorder = monitor.NewRecorder()

	return runner, nil
}

// Run executes the burn until the duration elapses, the parent context is
// cancelled or the temperature guard trips. Every worker is joined before
// Run returns; the join has no timeout.
func (r *Runner) Run(ctx context.Context) Report {
	start := time.Now()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	timer := time.AfterFunc(r.cfg.Duration, func() {
		cancel(errDurationElapsed)
	})
	defer timer.Stop()

	r.burner.Start(runCtx)

	var observations <-chan monitor.Observation
	if r.sampler != nil {
		observations = r.sampler.Run(runCtx)
	}

	r.supervise(runCtx, cancel, observations)

	r.burner.Wait()

	return r.buildReport(runCtx, time.Since(start))
}

// supervise records observations and arms the thermal guard until the run
// context is cancelled. A nil observation channel blocks forever, leaving
// cancellation as the only exit.
func (r *Runner) supervise(
	ctx context.Context,
	cancel context.CancelCauseFunc,
	observations <-chan monitor.Observation,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-observations:
			if !ok {
				observations = nil

				continue
			}

			r.recorder.Add(obs)

			if r.tripsTemperature(obs) {
				cancel(errTemperatureLimit)
			}
		}
	}
}

func (r *Runner) tripsTemperature(obs monitor.Observation) bool {
	if r.cfg.TempLimit <= 0 || obs.Err != nil {
		return false
	}

	return !math.IsNaN(obs.Temperature) && obs.Temperature >= r.cfg.TempLimit
}

func (r *Runner) buildReport(ctx context.Context, elapsed time.Duration) Report {
	statuses := r.burner.Statuses()

	failures := 0

	for _, status := range statuses {
		if status.Err != nil {
			failures++
		}
	}

	return Report{
		Cause:       causeOf(ctx),
		Elapsed:     elapsed,
		Workers:     r.burner.Workers(),
		Statuses:    statuses,
		PinFailures: failures,
		Monitor:     r.recorder.Summary(),
	}
}

func causeOf(ctx context.Context) Cause {
	cause := context.Cause(ctx)

	switch {
	case errors.Is(cause, errDurationElapsed):
		return CauseDurationElapsed
	case errors.Is(cause, errTemperatureLimit):
		return CauseTemperatureLimit
	default:
		return CauseInterrupted
	}
}
