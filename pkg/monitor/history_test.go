package monitor

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestRecorderSummaryAggregatesSeries(t *testing.T) {
	recorder := NewRecorder()

	stamp := time.Unix(1000, 0)
	recorder.Add(Observation{Timestamp: stamp, Utilisation: 0.5, Temperature: 60})
	recorder.Add(Observation{Timestamp: stamp, Utilisation: 0.9, Temperature: 72})
	recorder.Add(Observation{Timestamp: stamp, Utilisation: 0.7, Temperature: 66})

	summary := recorder.Summary()

	if summary.Samples != 3 {
		t.Fatalf("expected 3 samples, got %d", summary.Samples)
	}
	if summary.Errors != 0 {
		t.Fatalf("expected no errors, got %d", summary.Errors)
	}

	if got := summary.Utilisation.Min; math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("unexpected utilisation min: %v", got)
	}
	if got := summary.Utilisation.Max; math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("unexpected utilisation max: %v", got)
	}
	if got := summary.Utilisation.Avg; math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("unexpected utilisation avg: %v", got)
	}

	if got := summary.Temperature.Max; math.Abs(got-72) > 1e-9 {
		t.Fatalf("unexpected temperature max: %v", got)
	}
	if got := summary.Temperature.Avg; math.Abs(got-66) > 1e-9 {
		t.Fatalf("unexpected temperature avg: %v", got)
	}
}

func TestRecorderSummarySkipsNaNTemperatures(t *testing.T) {
	recorder := NewRecorder()

	recorder.Add(Observation{Utilisation: 0.4, Temperature: math.NaN()})
	recorder.Add(Observation{Utilisation: 0.6, Temperature: 55})

	summary := recorder.Summary()

	if summary.Temperature.Count != 1 {
		t.Fatalf("expected one temperature reading, got %d", summary.Temperature.Count)
	}
	if got := summary.Temperature.Avg; math.Abs(got-55) > 1e-9 {
		t.Fatalf("unexpected temperature avg: %v", got)
	}
	if summary.Utilisation.Count != 2 {
		t.Fatalf("expected both utilisation readings, got %d", summary.Utilisation.Count)
	}
}

func TestRecorderSummaryCountsErrorSamples(t *testing.T) {
	recorder := NewRecorder()

	recorder.Add(Observation{Err: errors.New("sample failed"), Temperature: math.NaN()})
	recorder.Add(Observation{Utilisation: 0.8, Temperature: 70})

	summary := recorder.Summary()

	if summary.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", summary.Samples)
	}
	if summary.Errors != 1 {
		t.Fatalf("expected 1 error sample, got %d", summary.Errors)
	}
	if summary.Utilisation.Count != 1 {
		t.Fatalf("expected error samples excluded from stats, got %d", summary.Utilisation.Count)
	}
}

func TestRecorderSummaryEmpty(t *testing.T) {
	summary := NewRecorder().Summary()

	if summary.Samples != 0 || summary.Errors != 0 {
		t.Fatalf("expected an empty summary, got %+v", summary)
	}
	if summary.Utilisation.Count != 0 || summary.Temperature.Count != 0 {
		t.Fatalf("expected empty series, got %+v", summary)
	}
}
