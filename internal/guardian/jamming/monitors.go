package jamming

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
)

// monitor runs check every interval. A failed check is followed by an
// exponentially growing wait, reset by the next success.
func (c *Controller) monitor(ctx context.Context, name string, interval time.Duration, check func(context.Context) error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.ErrorBackoff
	b.MaxInterval = c.opts.MaxErrorBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		wait := interval
		if err := check(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.ProbeErrorsTotal.WithLabelValues(name).Inc()
			wait = b.NextBackOff()
			c.logger.Error(err, "Probe failed", "probe", name, "retryIn", wait)
		} else {
			b.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(wait):
		}
	}
}

// checkSignal records a sample and reports a drop between the two most
// recent windows. A failed read records a substitute sample and is not
// evaluated.
func (c *Controller) checkSignal(ctx context.Context) error {
	if c.probes.Signal == nil {
		return nil
	}
	sample, err := c.probes.Signal.ReadSignal(ctx)
	if err != nil {
		if ctx.Err() == nil {
			sub := c.substituteSignal()
			c.history.Add(sub)
			c.logger.Warn("Signal read failed, recorded substitute sample", "wifi", sub.WiFi, "error", err)
		}
		return err
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = c.clock.Now()
	}
	c.history.Add(sample)
	c.touch()

	drop, ok := c.history.DropPercent(c.opts.SignalWindow)
	if ok && drop > c.opts.SignalDropPercent {
		c.Report(ctx, model.JammingSignalDrop, map[string]any{DetailDropPercent: drop})
	}
	return nil
}

// substituteSignal repeats the last reading, or the configured fallback
// strength when nothing was read yet.
func (c *Controller) substituteSignal() model.SignalSample {
	sub := model.SignalSample{WiFi: c.opts.FallbackSignal}
	if last, ok := c.history.Last(); ok {
		sub.WiFi = last.WiFi
		if last.Cellular != nil {
			v := *last.Cellular
			sub.Cellular = &v
		}
	}
	sub.Timestamp = c.clock.Now()
	sub.Substituted = true
	return sub
}

// checkNetwork probes every endpoint concurrently and replaces the network
// snapshot. When the adapter cannot measure at all the previous snapshot
// is kept.
func (c *Controller) checkNetwork(ctx context.Context) error {
	if c.probes.Reachability == nil || len(c.opts.Endpoints) == 0 {
		return nil
	}

	results := make([]model.EndpointProbe, len(c.opts.Endpoints))
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		unavailable error
	)
	for i, ep := range c.opts.Endpoints {
		wg.Add(1)
		go func(i int, ep string) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
			defer cancel()

			results[i] = model.EndpointProbe{Endpoint: ep}
			latency, err := c.probes.Reachability.CheckEndpoint(pctx, ep)
			switch {
			case err == nil:
				ms := float64(latency) / float64(time.Millisecond)
				results[i].Reachable = true
				results[i].LatencyMS = &ms
			case errors.Is(err, core.ErrProbeUnavailable):
				mu.Lock()
				unavailable = err
				mu.Unlock()
			}
		}(i, ep)
	}
	wg.Wait()

	if unavailable != nil {
		return unavailable
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	health := summarize(c.clock.Now(), results)
	c.mu.Lock()
	c.network = health
	c.mu.Unlock()
	c.touch()

	if health.PacketLoss > c.opts.PacketLossPercent {
		details := map[string]any{DetailPacketLoss: health.PacketLoss}
		if health.MeanLatencyMS != nil {
			details[DetailMeanLatency] = *health.MeanLatencyMS
		}
		c.Report(ctx, model.JammingNetwork, details)
	}
	return nil
}

// summarize computes packet loss and the mean latency of reachable endpoints.
func summarize(now time.Time, probes []model.EndpointProbe) *model.NetworkHealth {
	health := &model.NetworkHealth{Timestamp: now, Probes: probes}
	if len(probes) == 0 {
		return health
	}

	var failed int
	var total float64
	var reachable int
	for _, p := range probes {
		if !p.Reachable {
			failed++
			continue
		}
		if p.LatencyMS != nil {
			total += *p.LatencyMS
			reachable++
		}
	}
	health.PacketLoss = float64(failed) * 100 / float64(len(probes))
	if reachable > 0 {
		mean := total / float64(reachable)
		health.MeanLatencyMS = &mean
	}
	return health
}

// checkInterference estimates interference from the signal history.
func (c *Controller) checkInterference(ctx context.Context) error {
	level := c.history.Interference(c.opts.InterferenceWindow)
	if level > c.opts.InterferenceThreshold {
		c.Report(ctx, model.JammingRFInterference, map[string]any{DetailInterferenceLevel: level})
	}
	return nil
}

// checkGPS reports an unavailable receiver or a poor fix. A failed read
// keeps the last fix, marked substituted, and is not evaluated.
func (c *Controller) checkGPS(ctx context.Context) error {
	if c.probes.GPS == nil {
		return nil
	}
	fix, err := c.probes.GPS.ReadGPS(ctx)
	if err != nil {
		c.mu.Lock()
		if c.gps != nil {
			c.gps.Substituted = true
		}
		c.mu.Unlock()
		c.logger.Warn("GPS read failed, keeping last fix", "error", err)
		return err
	}
	fix.Substituted = false
	c.mu.Lock()
	c.gps = &fix
	c.mu.Unlock()
	c.touch()

	if !fix.Available || fix.AccuracyM > c.opts.GPSAccuracyMeters {
		c.Report(ctx, model.JammingGPS, map[string]any{
			DetailAvailable: fix.Available,
			DetailAccuracy:  fix.AccuracyM,
		})
	}
	return nil
}
