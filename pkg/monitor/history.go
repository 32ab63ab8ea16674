package monitor

import "math"

// Recorder accumulates the observations made during a single run.
type Recorder struct {
	samples []Observation
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return new(Recorder)
}

// Add stores one observation. Error observations are kept as well so the
// summary can report how many samples failed.
func (r *Recorder) Add(obs Observation) {
	r.samples = append(r.samples, obs)
}

// Len returns the number of stored observations.
func (r *Recorder) Len() int {
	return len(r.samples)
}

// Stats aggregates one series as its minimum, maximum and mean. Count is
// the number of values that contributed; a zero Count means the series
// was empty and the other fields carry no information.
type Stats struct {
	Min   float64
	Max   float64
	Avg   float64
	Count int
}

// Summary condenses a run's samples for the shutdown log.
type Summary struct {
	Samples     int
	Errors      int
	Utilisation Stats
	Temperature Stats
}

// Summary computes per-series statistics over the recorded samples. NaN
// temperatures, meaning no sensor was readable at that tick, are excluded
// from the temperature series.
func (r *Recorder) Summary() Summary {
	var (
		utilisation seriesAccumulator
		temperature seriesAccumulator
	)

	summary := Summary{Samples: len(r.samples)}

	for _, obs := range r.samples {
		if obs.Err != nil {
			summary.Errors++

			continue
		}

		utilisation.observe(obs.Utilisation)
		temperature.observe(obs.Temperature)
	}

	summary.Utilisation = utilisation.stats()
	summary.Temperature = temperature.stats()

	return summary
}

type seriesAccumulator struct {
	min   float64
	max   float64
	sum   float64
	count int
}

func (a *seriesAccumulator) observe(value float64) {
	if math.IsNaN(value) {
		return
	}

	if a.count == 0 || value < a.min {
		a.min = value
	}

	if a.count == 0 || value > a.max {
		a.max = value
	}

	a.sum += value
	a.count++
}

func (a *seriesAccumulator) stats() Stats {
	if a.count == 0 {
		return Stats{}
	}

	return Stats{
		Min:   a.min,
		Max:   a.max,
		Avg:   a.sum / float64(a.count),
		Count: a.count,
	}
}
