package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

var (
	_ core.SignalProbe       = (*Simulated)(nil)
	_ core.ReachabilityProbe = (*Simulated)(nil)
	_ core.GPSProbe          = (*Simulated)(nil)
	_ core.ChannelTester     = (*Simulated)(nil)
	_ core.HostMetrics       = (*Simulated)(nil)
)

// Simulated is a deterministic adapter for every probe port. Readings only
// change through its setters, which makes it the adapter of choice for
// tests and for running the guardian without radio hardware.
type Simulated struct {
	mu        sync.Mutex
	wifi      []float64
	cellular  *float64
	signalErr error
	down      map[string]bool
	latency   time.Duration
	gps       model.GPSFix
	gpsErr    error
	channels  map[model.Channel]bool
	system    model.SystemState
}

// NewSimulated returns an adapter reporting a healthy environment: strong
// wifi, every endpoint reachable, a 5m GPS fix and all channels usable.
func NewSimulated() *Simulated {
	return &Simulated{
		wifi:    []float64{85},
		down:    make(map[string]bool),
		latency: 20 * time.Millisecond,
		gps:     model.GPSFix{Available: true, AccuracyM: 5},
		channels: map[model.Channel]bool{
			model.ChannelWiFi:     true,
			model.ChannelCellular: true,
			model.ChannelEthernet: true,
		},
		system: model.SystemState{CPUUsage: 10, MemoryUsage: 30},
	}
}

// SetWiFi sets the readings returned by ReadSignal. Several values are
// returned in turn, the last one repeating.
func (s *Simulated) SetWiFi(values ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wifi = append([]float64(nil), values...)
}

// SetCellular sets the cellular strength; nil omits it.
func (s *Simulated) SetCellular(v *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cellular = v
}

// SetSignalError makes ReadSignal fail with err until cleared with nil.
func (s *Simulated) SetSignalError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalErr = err
}

// SetEndpointDown marks an endpoint unreachable or reachable again.
func (s *Simulated) SetEndpointDown(endpoint string, down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down[endpoint] = down
}

// SetGPS sets the fix returned by ReadGPS.
func (s *Simulated) SetGPS(fix model.GPSFix, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gps, s.gpsErr = fix, err
}

// SetChannel marks a backup channel usable or not.
func (s *Simulated) SetChannel(ch model.Channel, up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch] = up
}

func (s *Simulated) ReadSignal(ctx context.Context) (model.SignalSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signalErr != nil {
		return model.SignalSample{}, s.signalErr
	}
	var wifi float64
	if len(s.wifi) > 0 {
		wifi = s.wifi[0]
		if len(s.wifi) > 1 {
			s.wifi = s.wifi[1:]
		}
	}
	sample := model.SignalSample{WiFi: wifi}
	if s.cellular != nil {
		v := *s.cellular
		sample.Cellular = &v
	}
	return sample, nil
}

func (s *Simulated) CheckEndpoint(ctx context.Context, endpoint string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down[endpoint] {
		return 0, fmt.Errorf("dial %s: connection timed out", endpoint)
	}
	return s.latency, nil
}

func (s *Simulated) ReadGPS(ctx context.Context) (model.GPSFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gps, s.gpsErr
}

func (s *Simulated) TestChannel(ctx context.Context, ch model.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.channels[ch] {
		return fmt.Errorf("channel %s has no connectivity", ch)
	}
	return nil
}

func (s *Simulated) SystemState(ctx context.Context) (model.SystemState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.system, nil
}
