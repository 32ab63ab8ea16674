// Package monitor samples host CPU utilisation and temperature while a
// stress run is in flight.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Observation represents one host sample taken during a run. Utilisation
// is expressed as a ratio in the range [0,1]. Temperature is in degrees
// Celsius and NaN when no sensor was readable.
type Observation struct {
	Timestamp    time.Time
	Utilisation  float64
	Temperature  float64
	BusySeconds  float64
	TotalSeconds float64
	Err          error
}

// Source describes an entity capable of returning cumulative CPU time counters.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot captures the cumulative idle and total CPU seconds at a point in time.
type Snapshot struct {
	Idle  float64
	Total float64
}

// TempSource reports the hottest temperature reading across the host sensors.
type TempSource interface {
	Max(ctx context.Context) (float64, error)
}

// Sampler periodically samples host statistics and publishes observations.
type Sampler struct {
	source   Source
	temps    TempSource
	interval time.Duration
	now      func() time.Time
	started  atomic.Bool
}

// DefaultInterval is used when a zero or negative interval is supplied.
const DefaultInterval = time.Second

var ErrSamplerAlreadyStarted = errors.New("monitor: sampler already started")

// NewSampler constructs a Sampler using the provided sources and interval.
// Nil sources fall back to the gopsutil-backed host readers.
func NewSampler(src Source, temps TempSource, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	sampler := new(Sampler)
	sampler.source = src
	sampler.temps = temps
	sampler.interval = interval
	sampler.now = time.Now

	return sampler
}

// Run begins sampling until the supplied context is cancelled. Observations are
// delivered on the returned channel which is closed on exit.
func (s *Sampler) Run(ctx context.Context) <-chan Observation {
	observations := make(chan Observation, 1)

	if !s.started.CompareAndSwap(false, true) {
		s.publishError(ctx, observations, ErrSamplerAlreadyStarted)
		close(observations)

		return observations
	}

	go s.startSampling(ctx, observations)

	return observations
}

func (s *Sampler) startSampling(ctx context.Context, observations chan<- Observation) {
	defer close(observations)

	src := s.source
	if src == nil {
		src = CPUTimesSource{}
	}

	temps := s.temps
	if temps == nil {
		temps = SensorSource{}
	}

	last, err := src.Snapshot(ctx)
	if err != nil {
		s.publishError(ctx, observations, fmt.Errorf("initial snapshot: %w", err))

		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sampleLoop(ctx, src, temps, last, ticker, observations)
}

func (s *Sampler) sampleLoop(
	ctx context.Context,
	src Source,
	temps TempSource,
	last Snapshot,
	ticker *time.Ticker,
	observations chan<- Observation,
) {
	nowFn := s.timeSource()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := src.Snapshot(ctx)
			if err != nil {
				s.publishError(ctx, observations, fmt.Errorf("sample snapshot: %w", err))

				continue
			}

			obs := buildObservation(nowFn(), last, snap)
			obs.Temperature = readTemperature(ctx, temps)
			last = snap

			if !s.publishObservation(ctx, observations, obs) {
				return
			}
		}
	}
}

func (s *Sampler) publishError(ctx context.Context, observations chan<- Observation, err error) {
	observation := Observation{
		Timestamp:    s.timeSource()(),
		Utilisation:  0,
		Temperature:  math.NaN(),
		BusySeconds:  0,
		TotalSeconds: 0,
		Err:          err,
	}

	s.publishObservation(ctx, observations, observation)
}

func (s *Sampler) publishObservation(
	ctx context.Context,
	observations chan<- Observation,
	observation Observation,
) bool {
	select {
	case observations <- observation:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Sampler) timeSource() func() time.Time {
	if s.now != nil {
		return s.now
	}

	return time.Now
}

// readTemperature degrades to NaN instead of failing the sample. Hosts
// without readable sensors are common and must not disturb the run.
func readTemperature(ctx context.Context, temps TempSource) float64 {
	value, err := temps.Max(ctx)
	if err != nil {
		return math.NaN()
	}

	return value
}

func buildObservation(timestamp time.Time, previous, current Snapshot) Observation {
	totalDelta := diffCounter(previous.Total, current.Total)
	idleDelta := diffCounter(previous.Idle, current.Idle)
	busyDelta := 0.0
	utilisation := 0.0

	if totalDelta > 0 && idleDelta <= totalDelta {
		busyDelta = totalDelta - idleDelta

		utilisation = busyDelta / totalDelta
		if utilisation < 0 {
			utilisation = 0
		} else if utilisation > 1 {
			utilisation = 1
		}
	}

	return Observation{
		Timestamp:    timestamp,
		Utilisation:  utilisation,
		Temperature:  math.NaN(),
		BusySeconds:  busyDelta,
		TotalSeconds: totalDelta,
		Err:          nil,
	}
}

func diffCounter(previous, current float64) float64 {
	if current >= previous {
		return current - previous
	}
	// Counter went backwards; reset to zero delta.
	return 0
}
