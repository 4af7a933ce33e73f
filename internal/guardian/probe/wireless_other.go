//go:build !linux

package probe

import (
	"fmt"
	"runtime"

	"github.com/autopeer-io/guardian/internal/guardian/core"
)

func readWirelessQuality() (float64, error) {
	return 0, fmt.Errorf("%w: wireless statistics are not supported on %s", core.ErrProbeUnavailable, runtime.GOOS)
}
