package probe

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/autopeer-io/guardian/internal/guardian/core"
)

// maxLinkQuality is the usual scale of the link quality column.
const maxLinkQuality = 70.0

// parseWireless extracts the best link quality from /proc/net/wireless and
// returns it as a percentage.
//
//	Inter-| sta-|   Quality        |   Discarded packets
//	 face | tus | link level noise |  nwid  crypt   frag  retry   misc
//	 wlan0: 0000   54.  -56.  -256        0      0      0      0      0
func parseWireless(r io.Reader) (float64, error) {
	sc := bufio.NewScanner(r)
	best, found := 0.0, false
	for line := 0; sc.Scan(); line++ {
		if line < 2 {
			continue
		}
		_, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "."), 64)
		if err != nil {
			continue
		}
		if pct := q / maxLinkQuality * 100; !found || pct > best {
			best, found = pct, true
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: no wireless interface", core.ErrProbeUnavailable)
	}
	if best > 100 {
		best = 100
	}
	return best, nil
}
