package jamming

import (
	"context"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
)

// countermeasures applies the mitigations for event, in order: channel
// failover for link events, transmit power for interference, frequency
// hopping for HIGH and CRITICAL events, then evidence capture.
func (c *Controller) countermeasures(ctx context.Context, event model.JammingEvent) {
	switch event.Type {
	case model.JammingSignalDrop, model.JammingNetwork:
		c.failover(ctx)
	case model.JammingRFInterference:
		c.mu.Lock()
		c.state.txPowerBoost = true
		c.mu.Unlock()
		c.logger.Info("Increasing transmission power", "event", event.ID)
	}

	if event.Severity == model.SeverityHigh || event.Severity == model.SeverityCritical {
		c.mu.Lock()
		c.state.frequencyHopping = true
		c.mu.Unlock()
		c.logger.Info("Frequency hopping enabled", "event", event.ID, "severity", event.Severity)
	}

	c.captureEvidence(ctx, event)
}

// failover switches to the first configured backup channel that passes a
// connectivity test. The current channel is kept when none does.
func (c *Controller) failover(ctx context.Context) model.Channel {
	c.mu.Lock()
	current := c.state.channel
	c.mu.Unlock()

	if c.probes.Channels != nil {
		for _, ch := range c.channels {
			if ch == current {
				continue
			}
			if err := c.probes.Channels.TestChannel(ctx, ch); err != nil {
				c.logger.Debug("Backup channel unusable", "channel", ch, "error", err)
				continue
			}

			c.mu.Lock()
			c.state.channel = ch
			c.mu.Unlock()
			metrics.ChannelFailoverTotal.WithLabelValues("switched").Inc()
			c.logger.Info("Switched communication channel", "from", current, "to", ch)
			return ch
		}
	}

	metrics.ChannelFailoverTotal.WithLabelValues("no_backup").Inc()
	c.logger.Warn("No backup channel available, keeping current channel", "channel", current)
	return current
}

// captureEvidence persists the event with the surrounding telemetry. A
// failure is reported and otherwise ignored.
func (c *Controller) captureEvidence(ctx context.Context, event model.JammingEvent) {
	if c.evidence == nil {
		return
	}

	var system model.SystemState
	if c.probes.Host != nil {
		s, err := c.probes.Host.SystemState(ctx)
		if err != nil {
			c.logger.Warn("Host metrics unavailable for evidence", "error", err)
		} else {
			system = s
		}
	}

	c.mu.Lock()
	network := c.network.Clone()
	c.mu.Unlock()

	path, err := c.evidence.WriteJammingEvidence(ctx, model.JammingEvidence{
		Event:         event,
		SignalHistory: c.history.Recent(c.opts.EvidenceSamples),
		NetworkHealth: network,
		SystemState:   system,
	})
	if err != nil {
		metrics.EvidenceWriteFailuresTotal.WithLabelValues("jamming").Inc()
		c.logger.Error(err, "Failed to write jamming evidence", "event", event.ID)
		return
	}
	c.logger.Info("Jamming evidence captured", "event", event.ID, "path", path)
}
