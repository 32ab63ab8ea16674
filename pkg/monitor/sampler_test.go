package monitor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

type fakeSource struct {
	snapshots []Snapshot
	err       error
	index     int
}

func (f *fakeSource) Snapshot(ctx context.Context) (Snapshot, error) {
	if f.err != nil {
		return Snapshot{}, f.err
	}
	if f.index >= len(f.snapshots) {
		// Return the last snapshot repeatedly once exhausted.
		return f.snapshots[len(f.snapshots)-1], nil
	}
	snap := f.snapshots[f.index]
	f.index++
	return snap, nil
}

type fakeTempSource struct {
	value float64
	err   error
}

func (f fakeTempSource) Max(ctx context.Context) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

func collectObservations(t *testing.T, obsCh <-chan Observation, want int) []Observation {
	t.Helper()

	var obs []Observation
	timeout := time.After(time.Second)
	for len(obs) < want {
		select {
		case o, ok := <-obsCh:
			if !ok {
				t.Fatalf("channel closed prematurely; collected %d observations", len(obs))
			}
			if o.Err != nil {
				t.Fatalf("unexpected error: %v", o.Err)
			}
			obs = append(obs, o)
		case <-timeout:
			t.Fatalf("timed out waiting for observations; collected %d", len(obs))
		}
	}

	return obs
}

func TestSamplerEmitsObservations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{snapshots: []Snapshot{
		{Idle: 10, Total: 20},
		{Idle: 12, Total: 30},
		{Idle: 13, Total: 40},
	}}

	sampler := NewSampler(src, fakeTempSource{value: 61.5}, time.Millisecond)
	sampler.now = func() time.Time { return time.Unix(0, 0) }

	obs := collectObservations(t, sampler.Run(ctx), 2)

	cancel()

	if got, want := obs[0].Utilisation, 0.8; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected utilisation: got %.2f want %.2f", got, want)
	}
	if got, want := obs[0].BusySeconds, 8.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected busy seconds: got %v want %v", got, want)
	}
	if got, want := obs[0].TotalSeconds, 10.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected total seconds: got %v want %v", got, want)
	}
	if got, want := obs[0].Temperature, 61.5; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected temperature: got %v want %v", got, want)
	}

	if got, want := obs[1].Utilisation, 0.9; math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected utilisation: got %.2f want %.2f", got, want)
	}
}

func TestSamplerDegradesTemperatureToNaN(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{snapshots: []Snapshot{
		{Idle: 10, Total: 20},
		{Idle: 12, Total: 30},
	}}

	sampler := NewSampler(src, fakeTempSource{err: errors.New("no sensors")}, time.Millisecond)

	obs := collectObservations(t, sampler.Run(ctx), 1)

	cancel()

	if !math.IsNaN(obs[0].Temperature) {
		t.Fatalf("expected NaN temperature, got %v", obs[0].Temperature)
	}
	if obs[0].Err != nil {
		t.Fatalf("sensor failure must not fail the sample: %v", obs[0].Err)
	}
}

func TestSamplerPublishesInitialSnapshotError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{err: errors.New("source down")}

	sampler := NewSampler(src, fakeTempSource{}, time.Millisecond)

	obsCh := sampler.Run(ctx)

	select {
	case obs := <-obsCh:
		if obs.Err == nil {
			t.Fatalf("expected an error observation")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the error observation")
	}

	select {
	case _, ok := <-obsCh:
		if ok {
			t.Fatalf("expected the channel to close after the initial error")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the channel to close")
	}
}

func TestSamplerRejectsSecondRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{snapshots: []Snapshot{{Idle: 10, Total: 20}}}

	sampler := NewSampler(src, fakeTempSource{}, time.Millisecond)

	first := sampler.Run(ctx)
	second := sampler.Run(ctx)

	select {
	case obs := <-second:
		if !errors.Is(obs.Err, ErrSamplerAlreadyStarted) {
			t.Fatalf("expected ErrSamplerAlreadyStarted, got %v", obs.Err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the rejection observation")
	}

	cancel()

	drainObservations(first)
}

func drainObservations(obsCh <-chan Observation) {
	for range obsCh {
	}
}

func TestBuildObservationHandlesDiverseDeltas(t *testing.T) {
	cases := []struct {
		name    string
		prev    Snapshot
		current Snapshot
		util    float64
		busy    float64
		total   float64
	}{
		{
			name:    "no-change",
			prev:    Snapshot{Idle: 10, Total: 20},
			current: Snapshot{Idle: 10, Total: 20},
			util:    0,
			busy:    0,
			total:   0,
		},
		{
			name:    "full-busy",
			prev:    Snapshot{Idle: 10, Total: 20},
			current: Snapshot{Idle: 10, Total: 40},
			util:    1,
			busy:    20,
			total:   20,
		},
		{
			name:    "counter-reset",
			prev:    Snapshot{Idle: 100, Total: 200},
			current: Snapshot{Idle: 10, Total: 20},
			util:    0,
			busy:    0,
			total:   0,
		},
		{
			name:    "partial-busy",
			prev:    Snapshot{Idle: 40, Total: 100},
			current: Snapshot{Idle: 50, Total: 140},
			util:    0.75,
			busy:    30,
			total:   40,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := buildObservation(time.Unix(0, 0), tc.prev, tc.current)
			if math.Abs(obs.Utilisation-tc.util) > 1e-9 {
				t.Fatalf("unexpected utilisation: got %.2f want %.2f", obs.Utilisation, tc.util)
			}
			if math.Abs(obs.BusySeconds-tc.busy) > 1e-9 {
				t.Fatalf("unexpected busy: got %v want %v", obs.BusySeconds, tc.busy)
			}
			if math.Abs(obs.TotalSeconds-tc.total) > 1e-9 {
				t.Fatalf("unexpected total: got %v want %v", obs.TotalSeconds, tc.total)
			}
			if !math.IsNaN(obs.Temperature) {
				t.Fatalf("expected NaN temperature before sensor read, got %v", obs.Temperature)
			}
		})
	}
}
