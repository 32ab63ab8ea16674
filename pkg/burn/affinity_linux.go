//go:build linux

package burn

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	schedSetaffinityMu sync.RWMutex
	schedSetaffinity   = func(pid int, mask *unix.CPUSet) error {
		return unix.SchedSetaffinity(pid, mask)
	}
)

// pinToCPU restricts the calling OS thread to the given logical CPU. The
// caller must already hold the thread via runtime.LockOSThread.
func pinToCPU(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("pin cpu %d: %w", cpu, errInvalidCPUIndex)
	}

	schedSetaffinityMu.RLock()
	fn := schedSetaffinity
	schedSetaffinityMu.RUnlock()

	var mask unix.CPUSet

	mask.Zero()
	mask.Set(cpu)

	err := fn(0, &mask)
	if err != nil {
		return fmt.Errorf("set affinity for cpu %d: %w", cpu, err)
	}

	return nil
}
