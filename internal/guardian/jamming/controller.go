package jamming

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/options"
)

// Probes bundles the telemetry adapters used by the monitors.
type Probes struct {
	Signal       core.SignalProbe
	Reachability core.ReachabilityProbe
	GPS          core.GPSProbe
	Channels     core.ChannelTester
	Host         core.HostMetrics
}

// Controller is the signal-integrity controller: four monitors feeding a
// debounced coordinator that runs countermeasures and dispatches alerts.
type Controller struct {
	opts     *options.JammingOptions
	probes   Probes
	alerts   core.AlertPublisher
	evidence core.EvidenceWriter
	clock    clock.Clock
	logger   log.Logger
	history  *History
	channels []model.Channel

	lifecycle context.Context
	cancel    context.CancelFunc
	tasks     sync.WaitGroup

	mu         sync.Mutex
	state      state
	running    bool
	stopped    bool
	network    *model.NetworkHealth
	gps        *model.GPSFix
	lastUpdate time.Time
}

// state is the process-wide jamming state. At most one event is active.
type state struct {
	active           bool
	channel          model.Channel
	txPowerBoost     bool
	frequencyHopping bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithLogger sets the controller logger.
func WithLogger(l log.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = l }
}

// NewController creates a signal-integrity controller.
func NewController(opts *options.JammingOptions, probes Probes, alerts core.AlertPublisher,
	evidence core.EvidenceWriter, o ...Option) *Controller {
	c := &Controller{
		opts:     opts,
		probes:   probes,
		alerts:   alerts,
		evidence: evidence,
		clock:    clock.RealClock{},
		logger:   log.NewNopLogger(),
		history:  NewHistory(opts.HistoryCapacity),
	}
	for _, fn := range o {
		fn(c)
	}
	for _, ch := range opts.Channels {
		c.channels = append(c.channels, model.Channel(ch))
	}
	c.state.channel = model.Channel(opts.InitialChannel)
	c.lifecycle, c.cancel = context.WithCancel(context.Background())
	return c
}

// History exposes the signal history for read access.
func (c *Controller) History() *History {
	return c.history
}

// Start launches the four monitors. Calling Start while they run, or after
// Stop, does nothing.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.stopped {
		return
	}
	c.running = true

	loopCtx, cancel := context.WithCancel(c.lifecycle)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	c.logger.Info("Starting signal monitors", "channel", c.state.channel, "endpoints", c.opts.Endpoints)
	c.goTask(func() { c.monitor(loopCtx, "signal", c.opts.SignalInterval, c.checkSignal) })
	c.goTask(func() { c.monitor(loopCtx, "network", c.opts.NetworkInterval, c.checkNetwork) })
	c.goTask(func() { c.monitor(loopCtx, "interference", c.opts.InterferenceInterval, c.checkInterference) })
	c.goTask(func() { c.monitor(loopCtx, "gps", c.opts.GPSInterval, c.checkGPS) })
}

// Stop cancels the monitors and any pending cooldown, then waits for them.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.running = false
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.tasks.Wait()
	c.logger.Info("Signal controller stopped")
}

// Run starts the controller and blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.Start(ctx)
	<-ctx.Done()
	c.Stop()
	return nil
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() model.JammingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := model.JammingStatus{
		Monitoring:       c.running,
		JammingActive:    c.state.active,
		CurrentChannel:   c.state.channel,
		NetworkHealth:    c.network.Clone(),
		LastUpdate:       c.lastUpdate,
		TxPowerBoost:     c.state.txPowerBoost,
		FrequencyHopping: c.state.frequencyHopping,
	}
	if s, ok := c.history.Last(); ok {
		st.LastSample = &s
	}
	if c.gps != nil {
		fix := *c.gps
		st.GPS = &fix
	}
	return st
}

func (c *Controller) goTask(fn func()) {
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		fn()
	}()
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastUpdate = c.clock.Now()
	c.mu.Unlock()
}
