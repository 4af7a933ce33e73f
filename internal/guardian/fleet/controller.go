package fleet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/multierr"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/options"
)

// Controller is the fleet recovery controller. It owns the telemetry store,
// runs the battery and health monitors and services return journeys.
type Controller struct {
	opts     *options.FleetOptions
	store    *Store
	home     model.Position
	uplink   core.Uplink
	alerts   core.AlertPublisher
	evidence core.EvidenceWriter
	clock    clock.WithTicker
	logger   log.Logger

	// lifecycle scopes journeys and loops; cancelled by Stop.
	lifecycle context.Context
	cancel    context.CancelFunc
	tasks     sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clock.WithTicker) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithLogger sets the controller logger.
func WithLogger(l log.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = l }
}

// NewController creates a fleet controller over the units configured in opts.
func NewController(opts *options.FleetOptions, uplink core.Uplink, alerts core.AlertPublisher,
	evidence core.EvidenceWriter, o ...Option) *Controller {
	c := &Controller{
		opts:     opts,
		home:     model.Position{Lat: opts.HomeLat, Lon: opts.HomeLon},
		uplink:   uplink,
		alerts:   alerts,
		evidence: evidence,
		clock:    clock.RealClock{},
		logger:   log.NewNopLogger(),
	}
	for _, fn := range o {
		fn(c)
	}

	now := c.clock.Now()
	records := RecordsFromOptions(opts.Units)
	for i := range records {
		records[i].LastUpdate = now
	}
	c.store = NewStore(records...)
	c.lifecycle, c.cancel = context.WithCancel(context.Background())
	return c
}

// RecordsFromOptions converts configured units into initial records.
func RecordsFromOptions(units []options.UnitOptions) []model.UnitRecord {
	records := make([]model.UnitRecord, 0, len(units))
	for _, u := range units {
		status := model.UnitStatus(u.Status)
		if status == "" {
			status = model.StatusActive
		}
		records = append(records, model.UnitRecord{
			ID:        u.ID,
			Position:  model.Position{Lat: u.Lat, Lon: u.Lon, Alt: u.Alt},
			Battery:   model.ClampBattery(u.Battery),
			Status:    status,
			RTHReason: model.ReasonNone,
		})
	}
	return records
}

// Store exposes the telemetry store for read access.
func (c *Controller) Store() *Store {
	return c.store
}

// Start launches the battery and health monitors. Calling Start while the
// monitors run, or after Stop, does nothing.
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

	c.logger.Info("Starting fleet monitors", "units", c.store.Len(),
		"interval", c.opts.MonitorInterval, "healthInterval", c.opts.HealthInterval)
	c.goTask(func() { c.every(loopCtx, c.opts.MonitorInterval, c.runCycle) })
	c.goTask(func() { c.every(loopCtx, c.opts.HealthInterval, c.checkHealth) })
}

// Stop cancels the monitors and every in-flight journey, then waits for them.
// Landed units and written logs are left as they are.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.running = false
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.tasks.Wait()
	c.logger.Info("Fleet controller stopped")
}

// Run starts the controller and blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.Start(ctx)
	<-ctx.Done()
	c.Stop()
	return nil
}

// Monitoring reports whether the monitors are running.
func (c *Controller) Monitoring() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Status returns the aggregate fleet view.
func (c *Controller) Status() model.FleetStatus {
	units := c.store.Snapshot()
	st := model.FleetStatus{
		Total:      len(units),
		Monitoring: c.Monitoring(),
		Units:      units,
	}
	for _, rec := range units {
		switch rec.Status {
		case model.StatusActive:
			st.Active++
		case model.StatusReturning:
			st.Returning++
		}
		if rec.Battery <= c.opts.RTHThreshold {
			st.LowBattery++
		}
	}
	return st
}

// goTask runs fn on a tracked goroutine.
func (c *Controller) goTask(fn func()) {
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		fn()
	}()
}

// every runs fn immediately and then on each tick until ctx is done.
func (c *Controller) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

// runCycle evaluates every unit once against the battery policy.
func (c *Controller) runCycle(ctx context.Context) {
	for _, u := range c.store.list() {
		c.evaluate(ctx, u)
	}
}

func (c *Controller) evaluate(ctx context.Context, u *unit) {
	u.mu.Lock()
	rec := u.rec
	var (
		trigger   bool
		reason    model.RTHReason
		emergency bool
	)
	switch {
	case rec.Status == model.StatusActive && rec.Battery <= c.opts.EmergencyThreshold:
		trigger, reason, emergency = !rec.ReturningHome, model.ReasonCriticalBattery, true
	case rec.Status == model.StatusActive && rec.Battery <= c.opts.RTHThreshold && !rec.ReturningHome:
		trigger, reason = true, model.ReasonLowBattery
	case rec.Status == model.StatusActive && !rec.ReturningHome:
		u.rec.Battery = model.ClampBattery(rec.Battery - c.opts.DrainRate)
		u.rec.LastUpdate = c.clock.Now()
	case rec.Status == model.StatusLanded && rec.Battery < 100:
		u.rec.Battery = model.ClampBattery(rec.Battery + c.opts.ChargeRate)
		u.rec.LastUpdate = c.clock.Now()
	}
	battery := u.rec.Battery
	u.mu.Unlock()

	metrics.UnitBattery.WithLabelValues(rec.ID).Set(battery)

	if !trigger {
		return
	}
	plan, err := c.beginReturn(ctx, u, reason, emergency)
	if err != nil {
		c.logger.Debug("Return not started", "unit", rec.ID, "reason", reason, "error", err)
		return
	}
	c.goTask(func() {
		tctx := c.unitContext(rec.ID)
		_ = c.sendReturn(tctx, rec.ID, plan)
		c.runJourney(tctx, rec.ID, plan)
	})
}

// unitContext derives a journey context carrying the unit logger.
func (c *Controller) unitContext(id string) context.Context {
	return c.withUnitLogger(c.lifecycle, id)
}

func (c *Controller) withUnitLogger(ctx context.Context, id string) context.Context {
	return logr.NewContext(ctx, c.logger.Logr().WithValues("unit", id))
}

// beginReturn moves u from active to returning and announces it. The
// transition happens before any journey for u is started.
func (c *Controller) beginReturn(ctx context.Context, u *unit, reason model.RTHReason, emergency bool) (model.ReturnPlan, error) {
	u.mu.Lock()
	if u.rec.ReturningHome {
		u.mu.Unlock()
		return model.ReturnPlan{}, ErrAlreadyReturning
	}
	if u.rec.Status != model.StatusActive {
		u.mu.Unlock()
		return model.ReturnPlan{}, ErrNotActive
	}

	plan := PlanReturn(u.rec.Position, c.home, c.opts.CruiseSpeed, emergency, c.opts.EmergencyETAFactor)
	plan.Reason = reason
	if err := u.machine.Event(ctx, EventReturnHome, returnRequest{reason: reason, plan: plan}); err != nil {
		u.mu.Unlock()
		return model.ReturnPlan{}, translateEventError(err)
	}
	u.rec.LastUpdate = c.clock.Now()
	rec := copyRecord(u.rec)
	u.mu.Unlock()

	metrics.RTHTriggeredTotal.WithLabelValues(string(reason)).Inc()

	alertType, severity := model.AlertAutoRTH, model.SeverityMedium
	if emergency {
		alertType, severity = model.AlertEmergencyRTH, model.SeverityCritical
	}
	c.logger.Info("Return to home triggered", "unit", rec.ID, "reason", reason, "emergency", emergency,
		"battery", rec.Battery, "distanceMeters", plan.DistanceMeters, "etaSeconds", plan.ETASeconds)

	battery, eta := rec.Battery, plan.ETASeconds
	c.publish(ctx, model.Alert{
		Type:         alertType,
		Severity:     severity,
		UnitID:       rec.ID,
		BatteryLevel: &battery,
		ETASeconds:   &eta,
		Reason:       reason,
	})
	return plan, nil
}

// sendReturn delivers the plan over the uplink within UplinkTimeout. A
// failure is logged and counted; the unit stays returning either way.
func (c *Controller) sendReturn(ctx context.Context, id string, plan model.ReturnPlan) error {
	sctx, cancel := context.WithTimeout(ctx, c.opts.UplinkTimeout)
	defer cancel()

	err := c.uplink.SendReturnCommand(sctx, id, plan)
	if err == nil {
		return nil
	}

	metrics.RTHFailedTotal.WithLabelValues(string(plan.Reason)).Inc()
	logr.FromContextOrDiscard(ctx).Error(err, "Return command not delivered, continuing return",
		"timeout", c.opts.UplinkTimeout)
	return fmt.Errorf("%w: %w", ErrCommandNotDelivered, err)
}

// ReturnToHome requests a manual return for one unit. It fails with
// ErrUnknownUnit for an unknown id and ErrAlreadyReturning, without
// changing anything, when the unit is already returning. An error wrapping
// ErrCommandNotDelivered means the return was started anyway.
func (c *Controller) ReturnToHome(ctx context.Context, id string) error {
	u, ok := c.store.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	return c.launchReturn(ctx, u, id, false)
}

// EmergencyReturnAll runs the emergency return of every active unit. Units
// are handled concurrently and independently. The ids whose return was
// launched are returned along with the combined failures, which include
// undelivered commands of units that are nonetheless returning.
func (c *Controller) EmergencyReturnAll(ctx context.Context) ([]string, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		launched []string
		errs     []error
	)

	for _, u := range c.store.list() {
		rec := u.snapshot()
		if rec.Status != model.StatusActive || rec.ReturningHome {
			continue
		}

		wg.Add(1)
		go func(u *unit, id string) {
			defer wg.Done()
			err := c.safeLaunch(ctx, u, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				launched = append(launched, id)
			case errors.Is(err, ErrCommandNotDelivered):
				launched = append(launched, id)
				errs = append(errs, fmt.Errorf("unit %s: %w", id, err))
			case errors.Is(err, ErrAlreadyReturning), errors.Is(err, ErrNotActive):
				// raced with the battery monitor
			default:
				errs = append(errs, fmt.Errorf("unit %s: %w", id, err))
			}
		}(u, rec.ID)
	}
	wg.Wait()

	c.logger.Warn("Emergency return for all units", "launched", len(launched), "failed", len(errs))
	slices.Sort(launched)
	return launched, multierr.Combine(errs...)
}

// safeLaunch isolates one unit's emergency flow from the others.
func (c *Controller) safeLaunch(ctx context.Context, u *unit, id string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emergency return panicked: %v", r)
		}
	}()
	return c.launchReturn(ctx, u, id, true)
}

// launchReturn starts a commanded return. Emergency returns carry
// critical_battery like the ones raised by the battery monitor.
func (c *Controller) launchReturn(ctx context.Context, u *unit, id string, emergency bool) error {
	reason := model.ReasonManual
	if emergency {
		reason = model.ReasonCriticalBattery
	}
	plan, err := c.beginReturn(ctx, u, reason, emergency)
	if err != nil {
		return err
	}

	c.goTask(func() { c.runJourney(c.unitContext(id), id, plan) })
	return c.sendReturn(c.withUnitLogger(ctx, id), id, plan)
}

func (c *Controller) publish(ctx context.Context, a model.Alert) {
	if c.alerts == nil {
		return
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = c.clock.Now()
	}
	c.alerts.Publish(ctx, a)
}

func translateEventError(err error) error {
	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		if invalid.State == string(model.StatusReturning) {
			return ErrAlreadyReturning
		}
		return ErrNotActive
	}
	return err
}
