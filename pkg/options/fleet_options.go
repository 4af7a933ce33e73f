package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FleetOptions)(nil)

// UnitOptions is the initial configuration of one fleet unit. Units can
// only be supplied through the configuration file.
type UnitOptions struct {
	ID      string  `json:"id" mapstructure:"id"`
	Lat     float64 `json:"lat" mapstructure:"lat"`
	Lon     float64 `json:"lon" mapstructure:"lon"`
	Alt     float64 `json:"alt" mapstructure:"alt"`
	Battery float64 `json:"battery" mapstructure:"battery"`
	Status  string  `json:"status" mapstructure:"status"`
}

// FleetOptions holds the recovery policy of the fleet controller.
type FleetOptions struct {
	// MonitorInterval is the battery/RTH evaluation period.
	MonitorInterval time.Duration `json:"monitor-interval" mapstructure:"monitor-interval"`

	// HealthInterval is the period of the read-only record health scan.
	HealthInterval time.Duration `json:"health-interval" mapstructure:"health-interval"`

	// Thresholds in battery percent.
	RTHThreshold       float64 `json:"rth-threshold" mapstructure:"rth-threshold"`
	EmergencyThreshold float64 `json:"emergency-threshold" mapstructure:"emergency-threshold"`

	// DrainRate and ChargeRate are applied once per monitor cycle.
	DrainRate  float64 `json:"drain-rate" mapstructure:"drain-rate"`
	ChargeRate float64 `json:"charge-rate" mapstructure:"charge-rate"`

	// CruiseSpeed in meters per second.
	CruiseSpeed float64 `json:"cruise-speed" mapstructure:"cruise-speed"`

	// EmergencyETAFactor scales the ETA of emergency returns.
	EmergencyETAFactor float64 `json:"emergency-eta-factor" mapstructure:"emergency-eta-factor"`

	// JourneySteps is the number of interpolation steps of a return.
	JourneySteps int `json:"journey-steps" mapstructure:"journey-steps"`

	// JourneyStepFallback is the step cadence used when the ETA is zero.
	JourneyStepFallback time.Duration `json:"journey-step-fallback" mapstructure:"journey-step-fallback"`

	// JourneyDrainRate is the base battery drain per journey step. The
	// effective drain grows with progress up to twice this value.
	JourneyDrainRate float64 `json:"journey-drain-rate" mapstructure:"journey-drain-rate"`

	HomeLat float64 `json:"home-lat" mapstructure:"home-lat"`
	HomeLon float64 `json:"home-lon" mapstructure:"home-lon"`

	// UplinkTimeout bounds the delivery of one return command.
	UplinkTimeout time.Duration `json:"uplink-timeout" mapstructure:"uplink-timeout"`

	// LogDir receives emergency landing logs.
	LogDir string `json:"log-dir" mapstructure:"log-dir"`

	Units []UnitOptions `json:"units" mapstructure:"units"`
}

// NewFleetOptions creates a FleetOptions with the default recovery policy.
func NewFleetOptions() *FleetOptions {
	return &FleetOptions{
		MonitorInterval:     10 * time.Second,
		HealthInterval:      15 * time.Second,
		RTHThreshold:        20,
		EmergencyThreshold:  10,
		DrainRate:           0.5,
		ChargeRate:          2.0,
		CruiseSpeed:         15,
		EmergencyETAFactor:  0.7,
		JourneySteps:        10,
		JourneyStepFallback: 500 * time.Millisecond,
		JourneyDrainRate:    0.5,
		HomeLat:             28.7041,
		HomeLon:             77.1025,
		UplinkTimeout:       5 * time.Second,
		LogDir:              "logs",
	}
}

// Validate checks the policy for internal consistency.
func (o *FleetOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.MonitorInterval <= 0 || o.HealthInterval <= 0 {
		errors = append(errors, fmt.Errorf("fleet intervals must be positive"))
	}
	if o.EmergencyThreshold < 0 || o.RTHThreshold > 100 || o.EmergencyThreshold > o.RTHThreshold {
		errors = append(errors, fmt.Errorf("fleet thresholds must satisfy 0 <= emergency (%v) <= rth (%v) <= 100",
			o.EmergencyThreshold, o.RTHThreshold))
	}
	if o.DrainRate < 0 || o.ChargeRate < 0 || o.JourneyDrainRate < 0 {
		errors = append(errors, fmt.Errorf("fleet battery rates must not be negative"))
	}
	if o.CruiseSpeed <= 0 {
		errors = append(errors, fmt.Errorf("fleet.cruise-speed must be positive, got %v", o.CruiseSpeed))
	}
	if o.EmergencyETAFactor <= 0 || o.EmergencyETAFactor > 1 {
		errors = append(errors, fmt.Errorf("fleet.emergency-eta-factor must be in (0, 1], got %v", o.EmergencyETAFactor))
	}
	if o.JourneySteps < 1 {
		errors = append(errors, fmt.Errorf("fleet.journey-steps must be at least 1"))
	}
	if o.JourneyStepFallback <= 0 {
		errors = append(errors, fmt.Errorf("fleet.journey-step-fallback must be positive"))
	}
	if o.UplinkTimeout <= 0 {
		errors = append(errors, fmt.Errorf("fleet.uplink-timeout must be positive"))
	}
	if o.LogDir == "" {
		errors = append(errors, fmt.Errorf("fleet.log-dir must not be empty"))
	}

	seen := make(map[string]struct{}, len(o.Units))
	for i, u := range o.Units {
		if u.ID == "" {
			errors = append(errors, fmt.Errorf("fleet.units[%d]: id is required", i))
			continue
		}
		if _, dup := seen[u.ID]; dup {
			errors = append(errors, fmt.Errorf("fleet.units[%d]: duplicate id %q", i, u.ID))
		}
		seen[u.ID] = struct{}{}
		switch u.Status {
		case "", "active", "landed":
		default:
			errors = append(errors, fmt.Errorf("fleet.units[%d]: initial status must be active or landed, got %q", i, u.Status))
		}
	}

	return errors
}

// AddFlags adds flags for FleetOptions to the specified FlagSet.
func (o *FleetOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.MonitorInterval, "fleet.monitor-interval", o.MonitorInterval, "Interval between battery/RTH evaluations.")
	fs.DurationVar(&o.HealthInterval, "fleet.health-interval", o.HealthInterval, "Interval between fleet record health scans.")
	fs.Float64Var(&o.RTHThreshold, "fleet.rth-threshold", o.RTHThreshold, "Battery percent at or below which a unit returns home.")
	fs.Float64Var(&o.EmergencyThreshold, "fleet.emergency-threshold", o.EmergencyThreshold, "Battery percent at or below which a unit returns in emergency mode.")
	fs.Float64Var(&o.DrainRate, "fleet.drain-rate", o.DrainRate, "Battery percent drained per cycle from an active unit.")
	fs.Float64Var(&o.ChargeRate, "fleet.charge-rate", o.ChargeRate, "Battery percent charged per cycle on a landed unit.")
	fs.Float64Var(&o.CruiseSpeed, "fleet.cruise-speed", o.CruiseSpeed, "Assumed return speed in meters per second.")
	fs.Float64Var(&o.EmergencyETAFactor, "fleet.emergency-eta-factor", o.EmergencyETAFactor, "ETA multiplier applied to emergency returns.")
	fs.IntVar(&o.JourneySteps, "fleet.journey-steps", o.JourneySteps, "Interpolation steps of a return journey.")
	fs.DurationVar(&o.JourneyStepFallback, "fleet.journey-step-fallback", o.JourneyStepFallback, "Journey step cadence when the ETA is zero.")
	fs.Float64Var(&o.JourneyDrainRate, "fleet.journey-drain-rate", o.JourneyDrainRate, "Base battery drain per journey step.")
	fs.Float64Var(&o.HomeLat, "fleet.home-lat", o.HomeLat, "Home base latitude.")
	fs.Float64Var(&o.HomeLon, "fleet.home-lon", o.HomeLon, "Home base longitude.")
	fs.DurationVar(&o.UplinkTimeout, "fleet.uplink-timeout", o.UplinkTimeout, "Deadline for delivering one return command to a unit.")
	fs.StringVar(&o.LogDir, "fleet.log-dir", o.LogDir, "Directory for emergency landing logs.")
}
