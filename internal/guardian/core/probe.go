package core

import (
	"context"
	"time"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// The probe ports are the driven side of the signal controller. Host and
// simulated adapters live in internal/guardian/probe.

// SignalProbe reads the current link strength.
type SignalProbe interface {
	ReadSignal(ctx context.Context) (model.SignalSample, error)
}

// ReachabilityProbe checks a single network endpoint and returns the
// round-trip latency on success.
type ReachabilityProbe interface {
	CheckEndpoint(ctx context.Context, endpoint string) (time.Duration, error)
}

// GPSProbe reports receiver availability and accuracy.
type GPSProbe interface {
	ReadGPS(ctx context.Context) (model.GPSFix, error)
}

// ChannelTester checks whether a backup channel has connectivity. A nil
// error means the channel is usable.
type ChannelTester interface {
	TestChannel(ctx context.Context, ch model.Channel) error
}

// HostMetrics samples host resource usage for evidence records.
type HostMetrics interface {
	SystemState(ctx context.Context) (model.SystemState, error)
}
