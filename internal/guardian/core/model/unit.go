package model

import (
	"math"
	"time"
)

// UnitStatus is the lifecycle phase of a fleet unit.
type UnitStatus string

const (
	StatusActive    UnitStatus = "active"
	StatusReturning UnitStatus = "returning"
	StatusLanded    UnitStatus = "landed"
)

// RTHReason records why a unit was sent home.
type RTHReason string

const (
	ReasonNone            RTHReason = "none"
	ReasonLowBattery      RTHReason = "low_battery"
	ReasonCriticalBattery RTHReason = "critical_battery"
	ReasonManual          RTHReason = "manual"
)

// Position is a WGS84 coordinate with altitude in meters.
type Position struct {
	Lat float64 `json:"lat" mapstructure:"lat"`
	Lon float64 `json:"lon" mapstructure:"lon"`
	Alt float64 `json:"alt" mapstructure:"alt"`
}

// IsFinite reports whether every coordinate is a real number.
func (p Position) IsFinite() bool {
	for _, v := range []float64{p.Lat, p.Lon, p.Alt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// UnitRecord is the live state of one fleet unit.
type UnitRecord struct {
	ID            string     `json:"id"`
	Position      Position   `json:"position"`
	Battery       float64    `json:"battery"`
	Status        UnitStatus `json:"status"`
	ReturningHome bool       `json:"returning_home"`
	RTHReason     RTHReason  `json:"rth_reason"`
	EmergencyMode bool       `json:"emergency_mode"`

	// ETASeconds is the remaining return time while returning, else zero.
	ETASeconds float64 `json:"eta_seconds,omitempty"`

	LastUpdate time.Time  `json:"last_update"`
	LandedAt   *time.Time `json:"landed_at,omitempty"`
}

// UnitSpec is the initial configuration of a unit.
type UnitSpec struct {
	ID       string     `json:"id" mapstructure:"id"`
	Position Position   `json:"position" mapstructure:"position"`
	Battery  float64    `json:"battery" mapstructure:"battery"`
	Status   UnitStatus `json:"status" mapstructure:"status"`
}

// ClampBattery bounds a battery percentage to [0, 100].
func ClampBattery(b float64) float64 {
	if math.IsNaN(b) || b < 0 {
		return 0
	}
	if b > 100 {
		return 100
	}
	return b
}

// ReturnPlan is the route a unit follows home.
type ReturnPlan struct {
	Start          Position  `json:"start"`
	Home           Position  `json:"home"`
	DistanceMeters float64   `json:"distance_m"`
	ETASeconds     float64   `json:"eta_seconds"`
	EmergencySpeed bool      `json:"emergency_speed"`
	Reason         RTHReason `json:"reason"`
}

// RemainingETA is the time left once the given fraction of the route is
// flown. It never increases as progress grows.
func (p ReturnPlan) RemainingETA(progress float64) float64 {
	if progress <= 0 {
		return p.ETASeconds
	}
	if progress >= 1 {
		return 0
	}
	return p.ETASeconds * (1 - progress)
}

// PositionAt interpolates linearly between start and home. Altitude
// descends to zero on arrival.
func (p ReturnPlan) PositionAt(progress float64) Position {
	progress = math.Max(0, math.Min(1, progress))
	return Position{
		Lat: p.Start.Lat + (p.Home.Lat-p.Start.Lat)*progress,
		Lon: p.Start.Lon + (p.Home.Lon-p.Start.Lon)*progress,
		Alt: p.Start.Alt * (1 - progress),
	}
}

// FleetStatus is the aggregate view of the fleet.
type FleetStatus struct {
	Total      int                   `json:"total_drones"`
	Active     int                   `json:"active_drones"`
	Returning  int                   `json:"returning_drones"`
	LowBattery int                   `json:"low_battery_drones"`
	Monitoring bool                  `json:"monitoring"`
	Units      map[string]UnitRecord `json:"drones"`
}

// EmergencyLanding is the record written after an emergency return lands.
type EmergencyLanding struct {
	UnitID       string    `json:"drone_id"`
	Event        string    `json:"event"`
	BatteryLevel float64   `json:"battery_level"`
	Timestamp    time.Time `json:"timestamp"`
	Location     LatLon    `json:"location"`
}

// LatLon is a bare coordinate without altitude.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
