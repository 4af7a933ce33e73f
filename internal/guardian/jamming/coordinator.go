package jamming

import (
	"context"
	"maps"

	"github.com/google/uuid"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
)

// Report hands a threshold breach to the coordinator. While another event
// is active the breach is dropped and Report returns false. Otherwise the
// event is created, countermeasures run, the alert is dispatched and a
// cooldown is scheduled before further breaches are accepted.
func (c *Controller) Report(ctx context.Context, t model.JammingType, details map[string]any) (model.JammingEvent, bool) {
	c.mu.Lock()
	if c.state.active {
		c.mu.Unlock()
		metrics.JammingSuppressedTotal.WithLabelValues(string(t)).Inc()
		c.logger.Debug("Breach suppressed during cooldown", "type", t)
		return model.JammingEvent{}, false
	}
	c.state.active = true
	c.mu.Unlock()
	metrics.JammingActive.Set(1)

	event := model.JammingEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: c.clock.Now(),
		Details:   maps.Clone(details),
		Severity:  SeverityOf(t, details),
	}
	if event.Details == nil {
		event.Details = map[string]any{}
	}
	metrics.JammingEventsTotal.WithLabelValues(string(t), string(event.Severity)).Inc()
	c.logger.Warn("Jamming detected", "id", event.ID, "type", t, "severity", event.Severity, "details", event.Details)

	c.countermeasures(ctx, event)

	if c.alerts != nil {
		ev := event
		c.alerts.Publish(ctx, model.Alert{
			ID:        uuid.NewString(),
			Type:      model.AlertJamming,
			Severity:  event.Severity,
			Timestamp: event.Timestamp,
			Jamming:   &ev,
		})
	}

	c.goTask(c.cooldown)
	return event, true
}

// cooldown waits out the suppression window and re-arms the coordinator.
func (c *Controller) cooldown() {
	select {
	case <-c.clock.After(c.opts.Cooldown):
	case <-c.lifecycle.Done():
	}

	c.mu.Lock()
	c.state.active = false
	c.state.txPowerBoost = false
	c.state.frequencyHopping = false
	c.mu.Unlock()
	metrics.JammingActive.Set(0)
	c.logger.Info("Jamming cooldown elapsed, monitoring re-armed")
}
