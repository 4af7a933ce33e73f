//go:build linux

package probe

import (
	"fmt"
	"os"

	"github.com/autopeer-io/guardian/internal/guardian/core"
)

const procWireless = "/proc/net/wireless"

func readWirelessQuality() (float64, error) {
	f, err := os.Open(procWireless)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrProbeUnavailable, err)
	}
	defer f.Close()
	return parseWireless(f)
}
