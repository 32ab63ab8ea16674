package burn

import "errors"

// errInvalidCPUIndex flags a pin request the platform affinity mask
// cannot express.
var errInvalidCPUIndex = errors.New("burn: cpu index not addressable")
