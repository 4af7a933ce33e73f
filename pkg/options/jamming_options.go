package options

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*JammingOptions)(nil)

const (
	ProbeModeSimulated = "simulated"
	ProbeModeHost      = "host"
)

// JammingOptions holds the signal-integrity policy.
type JammingOptions struct {
	// ProbeMode selects the telemetry source: "simulated" or "host".
	ProbeMode string `json:"probe-mode" mapstructure:"probe-mode"`

	SignalInterval       time.Duration `json:"signal-interval" mapstructure:"signal-interval"`
	NetworkInterval      time.Duration `json:"network-interval" mapstructure:"network-interval"`
	InterferenceInterval time.Duration `json:"interference-interval" mapstructure:"interference-interval"`
	GPSInterval          time.Duration `json:"gps-interval" mapstructure:"gps-interval"`

	// SignalDropPercent is the drop between the two signal windows that counts as a breach.
	SignalDropPercent float64 `json:"signal-drop-percent" mapstructure:"signal-drop-percent"`
	// SignalWindow is the size of each of the two compared windows.
	SignalWindow int `json:"signal-window" mapstructure:"signal-window"`

	PacketLossPercent float64 `json:"packet-loss-percent" mapstructure:"packet-loss-percent"`

	InterferenceThreshold float64 `json:"interference-threshold" mapstructure:"interference-threshold"`
	InterferenceWindow    int     `json:"interference-window" mapstructure:"interference-window"`

	GPSAccuracyMeters float64 `json:"gps-accuracy-meters" mapstructure:"gps-accuracy-meters"`

	// FallbackSignal is the wifi strength recorded when the first signal
	// read fails. Later failures repeat the last reading.
	FallbackSignal float64 `json:"fallback-signal" mapstructure:"fallback-signal"`

	// Cooldown is how long a raised event suppresses further breaches.
	Cooldown time.Duration `json:"cooldown" mapstructure:"cooldown"`

	HistoryCapacity int `json:"history-capacity" mapstructure:"history-capacity"`
	EvidenceSamples int `json:"evidence-samples" mapstructure:"evidence-samples"`

	Channels       []string `json:"channels" mapstructure:"channels"`
	InitialChannel string   `json:"initial-channel" mapstructure:"initial-channel"`

	// Endpoints are host:port pairs checked by the network probe.
	Endpoints   []string      `json:"endpoints" mapstructure:"endpoints"`
	DialTimeout time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`

	// ErrorBackoff is the first retry delay after a probe failure; it
	// doubles on consecutive failures up to MaxErrorBackoff.
	ErrorBackoff    time.Duration `json:"error-backoff" mapstructure:"error-backoff"`
	MaxErrorBackoff time.Duration `json:"max-error-backoff" mapstructure:"max-error-backoff"`

	EvidenceDir string `json:"evidence-dir" mapstructure:"evidence-dir"`
}

// NewJammingOptions creates a JammingOptions with the default policy.
func NewJammingOptions() *JammingOptions {
	return &JammingOptions{
		ProbeMode:             ProbeModeSimulated,
		SignalInterval:        2 * time.Second,
		NetworkInterval:       5 * time.Second,
		InterferenceInterval:  3 * time.Second,
		GPSInterval:           10 * time.Second,
		SignalDropPercent:     30,
		SignalWindow:          5,
		PacketLossPercent:     15,
		InterferenceThreshold: 0.8,
		InterferenceWindow:    10,
		GPSAccuracyMeters:     50,
		FallbackSignal:        50,
		Cooldown:              30 * time.Second,
		HistoryCapacity:       100,
		EvidenceSamples:       20,
		Channels:              []string{"wifi", "cellular", "ethernet"},
		InitialChannel:        "wifi",
		Endpoints:             []string{"8.8.8.8:53", "1.1.1.1:53", "208.67.222.222:53"},
		DialTimeout:           3 * time.Second,
		ErrorBackoff:          5 * time.Second,
		MaxErrorBackoff:       60 * time.Second,
		EvidenceDir:           "evidence",
	}
}

// Validate checks the policy for internal consistency.
func (o *JammingOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	switch o.ProbeMode {
	case ProbeModeSimulated, ProbeModeHost:
	default:
		errors = append(errors, fmt.Errorf("jamming.probe-mode must be %q or %q, got %q", ProbeModeSimulated, ProbeModeHost, o.ProbeMode))
	}
	for name, d := range map[string]time.Duration{
		"signal-interval":       o.SignalInterval,
		"network-interval":      o.NetworkInterval,
		"interference-interval": o.InterferenceInterval,
		"gps-interval":          o.GPSInterval,
		"cooldown":              o.Cooldown,
		"dial-timeout":          o.DialTimeout,
		"error-backoff":         o.ErrorBackoff,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Errorf("jamming.%s must be positive, got %s", name, d))
		}
	}
	// Evidence files are named by the event's unix second; one event per
	// second at most keeps them distinct.
	if o.Cooldown > 0 && o.Cooldown < time.Second {
		errors = append(errors, fmt.Errorf("jamming.cooldown must be at least 1s, got %s", o.Cooldown))
	}
	if o.MaxErrorBackoff < o.ErrorBackoff {
		errors = append(errors, fmt.Errorf("jamming.max-error-backoff must not be below jamming.error-backoff"))
	}
	if o.SignalWindow < 1 || o.InterferenceWindow < 1 {
		errors = append(errors, fmt.Errorf("jamming sample windows must be at least 1"))
	}
	if o.HistoryCapacity < 2*o.SignalWindow || o.HistoryCapacity < o.InterferenceWindow {
		errors = append(errors, fmt.Errorf("jamming.history-capacity %d cannot hold the configured windows", o.HistoryCapacity))
	}
	if o.FallbackSignal <= 0 || o.FallbackSignal > 100 {
		errors = append(errors, fmt.Errorf("jamming.fallback-signal must be in (0, 100], got %v", o.FallbackSignal))
	}
	if o.EvidenceSamples < 0 {
		errors = append(errors, fmt.Errorf("jamming.evidence-samples must not be negative"))
	}
	if len(o.Channels) == 0 {
		errors = append(errors, fmt.Errorf("jamming.channels must not be empty"))
	} else if !slices.Contains(o.Channels, o.InitialChannel) {
		errors = append(errors, fmt.Errorf("jamming.initial-channel %q is not one of %v", o.InitialChannel, o.Channels))
	}
	if len(o.Endpoints) == 0 {
		errors = append(errors, fmt.Errorf("jamming.endpoints must not be empty"))
	}
	for _, ep := range o.Endpoints {
		if err := ValidateAddress(ep); err != nil {
			errors = append(errors, fmt.Errorf("jamming.endpoints: %w", err))
		}
	}
	if o.EvidenceDir == "" {
		errors = append(errors, fmt.Errorf("jamming.evidence-dir must not be empty"))
	}

	return errors
}

// AddFlags adds flags for JammingOptions to the specified FlagSet.
func (o *JammingOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.ProbeMode, "jamming.probe-mode", o.ProbeMode, "Telemetry source for the signal monitors ('simulated' or 'host').")
	fs.DurationVar(&o.SignalInterval, "jamming.signal-interval", o.SignalInterval, "Signal strength sampling interval.")
	fs.DurationVar(&o.NetworkInterval, "jamming.network-interval", o.NetworkInterval, "Network reachability check interval.")
	fs.DurationVar(&o.InterferenceInterval, "jamming.interference-interval", o.InterferenceInterval, "RF interference estimation interval.")
	fs.DurationVar(&o.GPSInterval, "jamming.gps-interval", o.GPSInterval, "GPS health check interval.")
	fs.Float64Var(&o.SignalDropPercent, "jamming.signal-drop-percent", o.SignalDropPercent, "Signal drop percentage that counts as a breach.")
	fs.IntVar(&o.SignalWindow, "jamming.signal-window", o.SignalWindow, "Samples per window when comparing signal strength.")
	fs.Float64Var(&o.PacketLossPercent, "jamming.packet-loss-percent", o.PacketLossPercent, "Packet loss percentage that counts as a breach.")
	fs.Float64Var(&o.InterferenceThreshold, "jamming.interference-threshold", o.InterferenceThreshold, "Normalized interference level that counts as a breach.")
	fs.IntVar(&o.InterferenceWindow, "jamming.interference-window", o.InterferenceWindow, "Samples used to estimate interference.")
	fs.Float64Var(&o.GPSAccuracyMeters, "jamming.gps-accuracy-meters", o.GPSAccuracyMeters, "GPS accuracy in meters above which a breach is raised.")
	fs.Float64Var(&o.FallbackSignal, "jamming.fallback-signal", o.FallbackSignal, "Wifi strength recorded when the first signal read fails.")
	fs.DurationVar(&o.Cooldown, "jamming.cooldown", o.Cooldown, "Suppression window after a jamming event.")
	fs.IntVar(&o.HistoryCapacity, "jamming.history-capacity", o.HistoryCapacity, "Number of signal samples retained.")
	fs.IntVar(&o.EvidenceSamples, "jamming.evidence-samples", o.EvidenceSamples, "Number of recent signal samples stored with evidence.")
	fs.StringSliceVar(&o.Channels, "jamming.channels", o.Channels, "Communication channels available for failover.")
	fs.StringVar(&o.InitialChannel, "jamming.initial-channel", o.InitialChannel, "Channel in use at startup.")
	fs.StringSliceVar(&o.Endpoints, "jamming.endpoints", o.Endpoints, "host:port endpoints checked by the network probe.")
	fs.DurationVar(&o.DialTimeout, "jamming.dial-timeout", o.DialTimeout, "Timeout of a single endpoint check.")
	fs.DurationVar(&o.ErrorBackoff, "jamming.error-backoff", o.ErrorBackoff, "Initial delay after a probe failure.")
	fs.DurationVar(&o.MaxErrorBackoff, "jamming.max-error-backoff", o.MaxErrorBackoff, "Maximum delay after repeated probe failures.")
	fs.StringVar(&o.EvidenceDir, "jamming.evidence-dir", o.EvidenceDir, "Directory for jamming evidence files.")
}
