package guardian

import (
	"context"
	"testing"
	"time"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/pkg/options"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		HttpOptions:    options.NewHttpOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		FleetOptions:   options.NewFleetOptions(),
		JammingOptions: options.NewJammingOptions(),
	}
	cfg.HttpOptions.Enabled = false
	cfg.FleetOptions.LogDir = t.TempDir()
	cfg.FleetOptions.Units = []options.UnitOptions{
		{ID: "GUARD-01", Lat: 28.71, Lon: 77.11, Alt: 100, Battery: 80, Status: "active"},
		{ID: "GUARD-02", Lat: 28.7041, Lon: 77.1025, Battery: 100, Status: "landed"},
	}
	cfg.JammingOptions.EvidenceDir = t.TempDir()
	return cfg
}

func TestNewGuardianRejectsUnknownProbeMode(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.JammingOptions.ProbeMode = "sdr"
	if _, err := cfg.NewGuardian(context.Background()); err == nil {
		t.Fatal("NewGuardian() accepted an unknown probe mode")
	}
}

func TestGuardianLifecycle(t *testing.T) {
	g, err := newTestConfig(t).NewGuardian(context.Background())
	if err != nil {
		t.Fatalf("NewGuardian() error = %v", err)
	}
	if g.Ready() == nil {
		t.Error("ready before Run")
	}

	alerts := make(chan model.Alert, 16)
	g.RegisterSubscriber("test", func(_ context.Context, a model.Alert) error {
		alerts <- a
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for g.Ready() != nil {
		if time.Now().After(deadline) {
			t.Fatalf("not ready: %v", g.Ready())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := g.ReturnToHome(ctx, "GUARD-01"); err != nil {
		t.Fatalf("ReturnToHome() error = %v", err)
	}
	select {
	case a := <-alerts:
		if a.Type != model.AlertAutoRTH || a.UnitID != "GUARD-01" || a.Reason != model.ReasonManual {
			t.Errorf("alert = %+v", a)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no alert dispatched")
	}

	launched, err := g.EmergencyReturnAll(ctx)
	if err != nil || len(launched) != 0 {
		t.Errorf("EmergencyReturnAll() = %v, %v, want nothing to launch", launched, err)
	}

	st := g.Status()
	if st.Fleet.Total != 2 || st.Fleet.Returning != 1 || !st.Jamming.Monitoring {
		t.Errorf("status = %+v", st)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}
