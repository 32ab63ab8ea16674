//go:build windows

package burn

import (
	"fmt"

	"golang.org/x/sys/windows"
)

//nolint:gochecknoglobals // lazy proc handles are resolved once
var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
)

// pinToCPU restricts the calling OS thread to the given logical CPU via
// SetThreadAffinityMask. The mask addresses at most 64 processors within
// the current processor group; higher indexes are reported as unpinnable.
func pinToCPU(cpu int) error {
	if cpu < 0 || cpu >= 64 {
		return fmt.Errorf("pin cpu %d: %w", cpu, errInvalidCPUIndex)
	}

	thread, err := windows.GetCurrentThread()
	if err != nil {
		return fmt.Errorf("resolve current thread: %w", err)
	}

	mask := uintptr(1) << cpu

	previous, _, callErr := procSetThreadAffinityMask.Call(uintptr(thread), mask)
	if previous == 0 {
		return fmt.Errorf("set affinity for cpu %d: %w", cpu, callErr)
	}

	return nil
}
