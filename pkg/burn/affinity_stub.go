//go:build !linux && !windows

package burn

import "errors"

var errAffinityUnsupported = errors.New("burn: thread affinity is not supported on this platform")

// pinToCPU reports pinning as unavailable. Workers still burn, scheduled
// wherever the OS places them.
func pinToCPU(int) error {
	return errAffinityUnsupported
}
