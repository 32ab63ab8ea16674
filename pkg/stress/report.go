package stress

import (
	"time"

	"cpu-estressador/pkg/burn"
	"cpu-estressador/pkg/monitor"
)

// Report describes a finished run. Statuses is indexed by worker and
// always has Workers entries.
type Report struct {
	Cause       Cause
	Elapsed     time.Duration
	Workers     int
	Statuses    []burn.Status
	PinFailures int
	Monitor     monitor.Summary
}

// Completed reports whether the run lasted its full configured duration.
func (r Report) Completed() bool {
	return r.Cause == CauseDurationElapsed
}
