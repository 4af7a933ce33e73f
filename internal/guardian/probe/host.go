package probe

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

var (
	_ core.SignalProbe       = (*Host)(nil)
	_ core.ReachabilityProbe = (*Host)(nil)
	_ core.GPSProbe          = (*Host)(nil)
	_ core.ChannelTester     = (*Host)(nil)
	_ core.HostMetrics       = (*Host)(nil)
)

// channelPrefixes maps a channel to the interface name prefixes serving it.
var channelPrefixes = map[model.Channel][]string{
	model.ChannelWiFi:     {"wl", "wlan", "wifi"},
	model.ChannelCellular: {"wwan", "ppp", "rmnet", "usb"},
	model.ChannelEthernet: {"en", "eth"},
}

// Host reads telemetry from the machine the guardian runs on. Signal
// strength comes from the wireless driver, reachability from TCP dials,
// channel state and resource usage from gopsutil. There is no GPS
// receiver, so the GPS probe reports a fixed nominal fix.
type Host struct {
	dialer  *net.Dialer
	nominal model.GPSFix
}

// NewHost creates a host adapter with the given per-dial timeout.
func NewHost(dialTimeout time.Duration) *Host {
	return &Host{
		dialer:  &net.Dialer{Timeout: dialTimeout},
		nominal: model.GPSFix{Available: true, AccuracyM: 5},
	}
}

func (h *Host) ReadSignal(ctx context.Context) (model.SignalSample, error) {
	quality, err := readWirelessQuality()
	if err != nil {
		return model.SignalSample{}, err
	}
	return model.SignalSample{Timestamp: time.Now(), WiFi: quality}, nil
}

func (h *Host) CheckEndpoint(ctx context.Context, endpoint string) (time.Duration, error) {
	start := time.Now()
	conn, err := h.dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return 0, err
	}
	latency := time.Since(start)
	_ = conn.Close()
	return latency, nil
}

func (h *Host) ReadGPS(ctx context.Context) (model.GPSFix, error) {
	return h.nominal, nil
}

// TestChannel succeeds when an interface serving ch is up and has an address.
func (h *Host) TestChannel(ctx context.Context, ch model.Channel) error {
	prefixes, ok := channelPrefixes[ch]
	if !ok {
		return fmt.Errorf("unknown channel %q", ch)
	}
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: list interfaces: %v", core.ErrProbeUnavailable, err)
	}
	for _, iface := range ifaces {
		if !hasPrefix(iface.Name, prefixes) {
			continue
		}
		if slices.Contains(iface.Flags, "up") && len(iface.Addrs) > 0 {
			return nil
		}
	}
	return fmt.Errorf("no usable %s interface", ch)
}

func (h *Host) SystemState(ctx context.Context) (model.SystemState, error) {
	var st model.SystemState

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return st, fmt.Errorf("cpu usage: %w", err)
	}
	if len(percents) > 0 {
		st.CPUUsage = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return st, fmt.Errorf("memory usage: %w", err)
	}
	st.MemoryUsage = vm.UsedPercent

	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return st, fmt.Errorf("network counters: %w", err)
	}
	if len(counters) > 0 {
		st.NetworkIO = model.NetworkIO{
			BytesSent:   counters[0].BytesSent,
			BytesRecv:   counters[0].BytesRecv,
			PacketsSent: counters[0].PacketsSent,
			PacketsRecv: counters[0].PacketsRecv,
		}
	}
	return st, nil
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
