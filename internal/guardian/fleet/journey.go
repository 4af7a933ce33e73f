package fleet

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
)

const emergencyLandingEvent = "emergency_landing"

// stepDuration is the wait between interpolation steps. A zero ETA falls
// back to the configured cadence.
func (c *Controller) stepDuration(plan model.ReturnPlan) time.Duration {
	if plan.ETASeconds <= 0 {
		return c.opts.JourneyStepFallback
	}
	return time.Duration(plan.ETASeconds / float64(c.opts.JourneySteps) * float64(time.Second))
}

// runJourney flies the unit home along plan and lands it. Cancellation
// stops the journey without landing.
func (c *Controller) runJourney(ctx context.Context, id string, plan model.ReturnPlan) {
	logger := logr.FromContextOrDiscard(ctx)
	u, ok := c.store.get(id)
	if !ok {
		return
	}

	steps := c.opts.JourneySteps
	step := c.stepDuration(plan)
	logger.V(1).Info("Return journey started", "steps", steps, "step", step.String())

	for i := 0; i <= steps; i++ {
		progress := float64(i) / float64(steps)

		u.mu.Lock()
		u.rec.Position = plan.PositionAt(progress)
		u.rec.Battery = model.ClampBattery(u.rec.Battery - c.opts.JourneyDrainRate*(1+progress))
		u.rec.ETASeconds = plan.RemainingETA(progress)
		u.rec.LastUpdate = c.clock.Now()
		battery := u.rec.Battery
		u.mu.Unlock()
		metrics.UnitBattery.WithLabelValues(id).Set(battery)

		if i == steps {
			break
		}
		select {
		case <-ctx.Done():
			logger.Info("Return journey cancelled", "progress", progress)
			return
		case <-c.clock.After(step):
		}
	}

	c.land(ctx, id, plan)
}

// land completes a journey: the unit is reset to the home base, a landing
// notice goes out and emergency returns leave a landing log behind.
func (c *Controller) land(ctx context.Context, id string, plan model.ReturnPlan) {
	logger := logr.FromContextOrDiscard(ctx)
	u, ok := c.store.get(id)
	if !ok {
		return
	}

	u.mu.Lock()
	reason, emergency := u.rec.RTHReason, u.rec.EmergencyMode
	if err := u.machine.Event(ctx, EventLand, plan.Home); err != nil {
		u.mu.Unlock()
		logger.Error(err, "Landing transition rejected")
		return
	}
	now := c.clock.Now()
	u.rec.LastUpdate = now
	u.rec.LandedAt = &now
	rec := copyRecord(u.rec)
	u.mu.Unlock()

	if reason == "" || reason == model.ReasonNone {
		reason = model.ReasonManual
	}
	metrics.LandingsTotal.WithLabelValues(string(reason)).Inc()
	logger.Info("Unit landed at home base", "reason", reason, "battery", rec.Battery, "emergency", emergency)

	battery := rec.Battery
	c.publish(ctx, model.Alert{
		Type:          model.AlertLanded,
		Severity:      model.SeverityLow,
		UnitID:        id,
		BatteryLevel:  &battery,
		LandingReason: reason,
	})

	if emergency {
		c.writeEmergencyLog(ctx, rec)
	}
}

func (c *Controller) writeEmergencyLog(ctx context.Context, rec model.UnitRecord) {
	if c.evidence == nil {
		return
	}
	path, err := c.evidence.WriteEmergencyLanding(ctx, model.EmergencyLanding{
		UnitID:       rec.ID,
		Event:        emergencyLandingEvent,
		BatteryLevel: rec.Battery,
		Timestamp:    c.clock.Now(),
		Location:     model.LatLon{Lat: rec.Position.Lat, Lon: rec.Position.Lon},
	})
	if err != nil {
		metrics.EvidenceWriteFailuresTotal.WithLabelValues(emergencyLandingEvent).Inc()
		logr.FromContextOrDiscard(ctx).Error(err, "Failed to write emergency landing log")
		return
	}
	logr.FromContextOrDiscard(ctx).Info("Emergency landing logged", "path", path)
}
