package core

import "errors"

// ErrProbeUnavailable is returned by a probe adapter that cannot take a
// measurement at all, as opposed to measuring a bad value.
var ErrProbeUnavailable = errors.New("probe unavailable")
