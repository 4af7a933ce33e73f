package jamming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/guardian/probe"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
	"github.com/autopeer-io/guardian/pkg/options"
)

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (p *recordingPublisher) Publish(_ context.Context, a model.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
}

func (p *recordingPublisher) all() []model.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Alert(nil), p.alerts...)
}

type fakeEvidence struct {
	mu      sync.Mutex
	jamming []model.JammingEvidence
	err     error
}

func (f *fakeEvidence) WriteJammingEvidence(_ context.Context, ev model.JammingEvidence) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.jamming = append(f.jamming, ev)
	return fmt.Sprintf("evidence/jamming_evidence_%d.json", len(f.jamming)), nil
}

func (f *fakeEvidence) WriteEmergencyLanding(context.Context, model.EmergencyLanding) (string, error) {
	return "", nil
}

func (f *fakeEvidence) written() []model.JammingEvidence {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.JammingEvidence(nil), f.jamming...)
}

type fixture struct {
	ctrl     *Controller
	sim      *probe.Simulated
	alerts   *recordingPublisher
	evidence *fakeEvidence
	clock    *testingclock.FakeClock
}

func newFixture(t *testing.T, mutate func(*options.JammingOptions)) *fixture {
	t.Helper()
	opts := options.NewJammingOptions()
	if mutate != nil {
		mutate(opts)
	}
	f := &fixture{
		sim:      probe.NewSimulated(),
		alerts:   &recordingPublisher{},
		evidence: &fakeEvidence{},
		clock:    testingclock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
	probes := Probes{Signal: f.sim, Reachability: f.sim, GPS: f.sim, Channels: f.sim, Host: f.sim}
	f.ctrl = NewController(opts, probes, f.alerts, f.evidence, WithClock(f.clock))
	t.Cleanup(f.ctrl.Stop)
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReportDebouncesDuringCooldown(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	suppressed := testutil.ToFloat64(metrics.JammingSuppressedTotal.WithLabelValues(string(model.JammingNetwork)))

	first, ok := f.ctrl.Report(ctx, model.JammingNetwork, map[string]any{DetailPacketLoss: 40.0})
	if !ok {
		t.Fatal("first breach was not raised")
	}
	if _, ok := f.ctrl.Report(ctx, model.JammingNetwork, map[string]any{DetailPacketLoss: 60.0}); ok {
		t.Fatal("breach during cooldown was raised")
	}
	if got := testutil.ToFloat64(metrics.JammingSuppressedTotal.WithLabelValues(string(model.JammingNetwork))) - suppressed; got != 1 {
		t.Errorf("suppressed counter delta = %v, want 1", got)
	}
	if !f.ctrl.Status().JammingActive {
		t.Error("jamming not active after a raised event")
	}

	waitFor(t, "cooldown timer", f.clock.HasWaiters)
	f.clock.Step(f.ctrl.opts.Cooldown)
	waitFor(t, "cooldown to clear", func() bool { return !f.ctrl.Status().JammingActive })

	second, ok := f.ctrl.Report(ctx, model.JammingNetwork, map[string]any{DetailPacketLoss: 40.0})
	if !ok {
		t.Fatal("breach after cooldown was not raised")
	}
	if first.ID == second.ID {
		t.Error("events share an id")
	}
	if got := len(f.alerts.all()); got != 2 {
		t.Errorf("dispatched %d alerts, want 2", got)
	}
}

func TestReportBuildsEventAndAlert(t *testing.T) {
	f := newFixture(t, nil)
	details := map[string]any{DetailInterferenceLevel: 0.9}

	event, ok := f.ctrl.Report(context.Background(), model.JammingRFInterference, details)
	if !ok {
		t.Fatal("breach was not raised")
	}
	details[DetailInterferenceLevel] = 0.1
	if event.Details[DetailInterferenceLevel] != 0.9 {
		t.Error("event details alias the caller map")
	}
	if event.Severity != model.SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL", event.Severity)
	}
	if !event.Timestamp.Equal(f.clock.Now()) {
		t.Errorf("timestamp = %v, want %v", event.Timestamp, f.clock.Now())
	}

	alerts := f.alerts.all()
	if len(alerts) != 1 {
		t.Fatalf("dispatched %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.Type != model.AlertJamming || a.Severity != model.SeverityCritical || a.Jamming == nil || a.Jamming.ID != event.ID {
		t.Errorf("unexpected alert %+v", a)
	}

	st := f.ctrl.Status()
	if !st.TxPowerBoost || !st.FrequencyHopping {
		t.Errorf("mitigations = boost %v hopping %v, want both", st.TxPowerBoost, st.FrequencyHopping)
	}
	if st.CurrentChannel != model.ChannelWiFi {
		t.Errorf("interference switched channel to %s", st.CurrentChannel)
	}
}

func TestCooldownClearsMitigations(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.Report(context.Background(), model.JammingRFInterference, map[string]any{DetailInterferenceLevel: 1.0})

	waitFor(t, "cooldown timer", f.clock.HasWaiters)
	f.clock.Step(f.ctrl.opts.Cooldown)
	waitFor(t, "cooldown to clear", func() bool { return !f.ctrl.Status().JammingActive })

	st := f.ctrl.Status()
	if st.TxPowerBoost || st.FrequencyHopping {
		t.Errorf("mitigations still set after cooldown: %+v", st)
	}
}

func TestNetworkPacketLoss(t *testing.T) {
	endpoints := []string{"10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53", "10.0.0.4:53", "10.0.0.5:53"}
	f := newFixture(t, func(o *options.JammingOptions) { o.Endpoints = endpoints })
	f.sim.SetEndpointDown("10.0.0.3:53", true)

	if err := f.ctrl.checkNetwork(context.Background()); err != nil {
		t.Fatalf("checkNetwork() error = %v", err)
	}

	health := f.ctrl.Status().NetworkHealth
	if health == nil {
		t.Fatal("no network snapshot")
	}
	if health.PacketLoss != 20 {
		t.Errorf("packet loss = %v, want 20", health.PacketLoss)
	}
	if health.MeanLatencyMS == nil || *health.MeanLatencyMS != 20 {
		t.Errorf("mean latency = %v, want 20", health.MeanLatencyMS)
	}
	if len(health.Probes) != len(endpoints) || health.Probes[2].Reachable {
		t.Errorf("unexpected probes %+v", health.Probes)
	}

	alerts := f.alerts.all()
	if len(alerts) != 1 {
		t.Fatalf("dispatched %d alerts, want 1", len(alerts))
	}
	ev := alerts[0].Jamming
	if ev.Type != model.JammingNetwork || ev.Severity != model.SeverityLow {
		t.Errorf("event = %s/%s, want network/LOW", ev.Type, ev.Severity)
	}
	if ev.Details[DetailPacketLoss] != 20.0 {
		t.Errorf("packet_loss detail = %v, want 20", ev.Details[DetailPacketLoss])
	}
}

func TestNetworkBelowThreshold(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.ctrl.checkNetwork(context.Background()); err != nil {
		t.Fatalf("checkNetwork() error = %v", err)
	}
	if got := len(f.alerts.all()); got != 0 {
		t.Errorf("dispatched %d alerts on a healthy network", got)
	}
	if f.ctrl.Status().NetworkHealth.PacketLoss != 0 {
		t.Error("packet loss on a healthy network")
	}
}

type unavailableReachability struct{}

func (unavailableReachability) CheckEndpoint(context.Context, string) (time.Duration, error) {
	return 0, core.ErrProbeUnavailable
}

func TestNetworkProbeUnavailableKeepsSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.ctrl.checkNetwork(context.Background()); err != nil {
		t.Fatalf("checkNetwork() error = %v", err)
	}
	before := f.ctrl.Status().NetworkHealth

	f.ctrl.probes.Reachability = unavailableReachability{}
	err := f.ctrl.checkNetwork(context.Background())
	if !errors.Is(err, core.ErrProbeUnavailable) {
		t.Fatalf("checkNetwork() error = %v, want ErrProbeUnavailable", err)
	}
	if after := f.ctrl.Status().NetworkHealth; !after.Timestamp.Equal(before.Timestamp) || after.PacketLoss != before.PacketLoss {
		t.Errorf("snapshot replaced: before %+v after %+v", before, after)
	}
	if got := len(f.alerts.all()); got != 0 {
		t.Errorf("dispatched %d alerts for an unavailable probe", got)
	}
}

func TestSignalDropFailsOver(t *testing.T) {
	f := newFixture(t, nil)
	f.sim.SetWiFi(80, 80, 80, 80, 80, 40, 40, 40, 40, 40)
	f.sim.SetChannel(model.ChannelCellular, false)

	for i := 0; i < 10; i++ {
		if err := f.ctrl.checkSignal(context.Background()); err != nil {
			t.Fatalf("checkSignal() error = %v", err)
		}
	}

	alerts := f.alerts.all()
	if len(alerts) != 1 {
		t.Fatalf("dispatched %d alerts, want 1", len(alerts))
	}
	if ev := alerts[0].Jamming; ev.Type != model.JammingSignalDrop || ev.Details[DetailDropPercent] != 50.0 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ch := f.ctrl.Status().CurrentChannel; ch != model.ChannelEthernet {
		t.Errorf("channel = %s, want ethernet", ch)
	}
}

func TestFailoverWithoutBackup(t *testing.T) {
	f := newFixture(t, nil)
	f.sim.SetChannel(model.ChannelCellular, false)
	f.sim.SetChannel(model.ChannelEthernet, false)
	before := testutil.ToFloat64(metrics.ChannelFailoverTotal.WithLabelValues("no_backup"))

	if got := f.ctrl.failover(context.Background()); got != model.ChannelWiFi {
		t.Errorf("failover() = %s, want wifi", got)
	}
	if got := testutil.ToFloat64(metrics.ChannelFailoverTotal.WithLabelValues("no_backup")) - before; got != 1 {
		t.Errorf("no_backup counter delta = %v, want 1", got)
	}
}

func TestFailoverSkipsCurrentChannel(t *testing.T) {
	f := newFixture(t, func(o *options.JammingOptions) { o.InitialChannel = "cellular" })

	if got := f.ctrl.failover(context.Background()); got != model.ChannelWiFi {
		t.Errorf("failover() = %s, want wifi", got)
	}
}

func TestSignalReadFailureRecordsSubstitute(t *testing.T) {
	cell := 60.0
	tests := []struct {
		name     string
		prior    []float64
		wantWiFi float64
		wantCell *float64
	}{
		{name: "no history uses fallback", wantWiFi: 50},
		{name: "repeats last reading", prior: []float64{72}, wantWiFi: 72, wantCell: &cell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if len(tt.prior) > 0 {
				f.sim.SetWiFi(tt.prior...)
				f.sim.SetCellular(&cell)
				if err := f.ctrl.checkSignal(context.Background()); err != nil {
					t.Fatalf("checkSignal() error = %v", err)
				}
				f.clock.Step(time.Second)
			}
			f.sim.SetSignalError(errors.New("driver reset"))

			if err := f.ctrl.checkSignal(context.Background()); err == nil {
				t.Fatal("checkSignal() succeeded with a failing probe")
			}
			if got, want := f.ctrl.History().Len(), len(tt.prior)+1; got != want {
				t.Fatalf("history length = %d, want %d", got, want)
			}
			last := f.ctrl.Status().LastSample
			if last == nil || !last.Substituted || last.WiFi != tt.wantWiFi || !last.Timestamp.Equal(f.clock.Now()) {
				t.Fatalf("last sample = %+v, want substituted wifi %v", last, tt.wantWiFi)
			}
			if diff := cmp.Diff(tt.wantCell, last.Cellular); diff != "" {
				t.Errorf("cellular mismatch (-want +got):\n%s", diff)
			}
			if n := len(f.alerts.all()); n != 0 {
				t.Errorf("dispatched %d alerts for a substituted sample", n)
			}
		})
	}
}

func TestSignalSampleTimestamped(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.ctrl.checkSignal(context.Background()); err != nil {
		t.Fatalf("checkSignal() error = %v", err)
	}
	last := f.ctrl.Status().LastSample
	if last == nil || !last.Timestamp.Equal(f.clock.Now()) || last.WiFi != 85 {
		t.Errorf("last sample = %+v", last)
	}
}

func TestInterferenceCheck(t *testing.T) {
	f := newFixture(t, nil)
	for _, v := range []float64{40, 90, 40, 90, 40, 90, 40, 90, 40, 90} {
		f.ctrl.History().Add(model.SignalSample{WiFi: v})
	}

	if err := f.ctrl.checkInterference(context.Background()); err != nil {
		t.Fatalf("checkInterference() error = %v", err)
	}
	alerts := f.alerts.all()
	if len(alerts) != 1 || alerts[0].Jamming.Type != model.JammingRFInterference {
		t.Fatalf("alerts = %+v, want one rf_interference", alerts)
	}
}

func TestGPSCheck(t *testing.T) {
	tests := []struct {
		name     string
		fix      model.GPSFix
		err      error
		wantErr  bool
		severity model.Severity
	}{
		{name: "healthy", fix: model.GPSFix{Available: true, AccuracyM: 5}},
		{name: "unavailable", fix: model.GPSFix{}, severity: model.SeverityCritical},
		{name: "inaccurate", fix: model.GPSFix{Available: true, AccuracyM: 75}, severity: model.SeverityLow},
		{name: "read failure", err: errors.New("serial timeout"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.sim.SetGPS(tt.fix, tt.err)

			err := f.ctrl.checkGPS(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkGPS() error = %v, wantErr %v", err, tt.wantErr)
			}
			if gps := f.ctrl.Status().GPS; tt.wantErr {
				if gps != nil {
					t.Errorf("status gps = %+v after a failed first read, want nil", gps)
				}
			} else if gps == nil || gps.Substituted || *gps != tt.fix {
				t.Errorf("status gps = %+v, want %+v", gps, tt.fix)
			}
			alerts := f.alerts.all()
			if tt.severity == "" {
				if len(alerts) != 0 {
					t.Errorf("dispatched %d alerts, want none", len(alerts))
				}
				return
			}
			if len(alerts) != 1 || alerts[0].Severity != tt.severity {
				t.Errorf("alerts = %+v, want one %s", alerts, tt.severity)
			}
		})
	}
}

func TestGPSReadFailureKeepsLastFix(t *testing.T) {
	f := newFixture(t, nil)
	good := model.GPSFix{Available: true, AccuracyM: 5}
	f.sim.SetGPS(good, nil)
	if err := f.ctrl.checkGPS(context.Background()); err != nil {
		t.Fatalf("checkGPS() error = %v", err)
	}

	f.sim.SetGPS(model.GPSFix{}, errors.New("serial timeout"))
	if err := f.ctrl.checkGPS(context.Background()); err == nil {
		t.Fatal("checkGPS() succeeded with a failing receiver")
	}
	want := model.GPSFix{Available: true, AccuracyM: 5, Substituted: true}
	if diff := cmp.Diff(&want, f.ctrl.Status().GPS); diff != "" {
		t.Errorf("status gps mismatch (-want +got):\n%s", diff)
	}
	if n := len(f.alerts.all()); n != 0 {
		t.Errorf("dispatched %d alerts, want none", n)
	}

	f.sim.SetGPS(good, nil)
	if err := f.ctrl.checkGPS(context.Background()); err != nil {
		t.Fatalf("checkGPS() error = %v", err)
	}
	if gps := f.ctrl.Status().GPS; gps == nil || gps.Substituted {
		t.Errorf("status gps = %+v after recovery, want a fresh fix", gps)
	}
}

func TestEvidenceCaptured(t *testing.T) {
	f := newFixture(t, func(o *options.JammingOptions) { o.EvidenceSamples = 3 })
	for i := 0; i < 5; i++ {
		f.ctrl.History().Add(model.SignalSample{WiFi: float64(60 + i)})
	}
	if err := f.ctrl.checkNetwork(context.Background()); err != nil {
		t.Fatalf("checkNetwork() error = %v", err)
	}

	event, _ := f.ctrl.Report(context.Background(), model.JammingGPS, map[string]any{DetailAvailable: false, DetailAccuracy: 0.0})

	written := f.evidence.written()
	if len(written) != 1 {
		t.Fatalf("wrote %d evidence records, want 1", len(written))
	}
	ev := written[0]
	if ev.Event.ID != event.ID {
		t.Errorf("evidence event = %s, want %s", ev.Event.ID, event.ID)
	}
	if got := wifiValues(ev.SignalHistory); len(got) != 3 || got[0] != 62 || got[2] != 64 {
		t.Errorf("signal history = %v, want the last three samples", got)
	}
	if ev.NetworkHealth == nil || ev.SystemState.CPUUsage != 10 {
		t.Errorf("evidence context missing: %+v", ev)
	}
}

func TestEvidenceFailureDoesNotBlockAlert(t *testing.T) {
	f := newFixture(t, nil)
	f.evidence.err = errors.New("disk full")
	before := testutil.ToFloat64(metrics.EvidenceWriteFailuresTotal.WithLabelValues("jamming"))

	if _, ok := f.ctrl.Report(context.Background(), model.JammingGPS, map[string]any{DetailAvailable: false}); !ok {
		t.Fatal("breach was not raised")
	}
	if got := len(f.alerts.all()); got != 1 {
		t.Errorf("dispatched %d alerts, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.EvidenceWriteFailuresTotal.WithLabelValues("jamming")) - before; got != 1 {
		t.Errorf("evidence failure counter delta = %v, want 1", got)
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.ctrl.Start(ctx)
	f.ctrl.Start(ctx)
	waitFor(t, "first signal sample", func() bool { return f.ctrl.History().Len() >= 1 })
	if !f.ctrl.Status().Monitoring {
		t.Error("not monitoring after Start")
	}

	f.ctrl.Stop()
	if f.ctrl.Status().Monitoring {
		t.Error("monitoring after Stop")
	}
	f.ctrl.Start(ctx)
	if f.ctrl.Status().Monitoring {
		t.Error("Start after Stop restarted the monitors")
	}
}
