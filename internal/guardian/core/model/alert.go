package model

import "time"

// AlertType names the payload delivered to subscribers.
type AlertType string

const (
	AlertAutoRTH      AlertType = "auto_rth"
	AlertEmergencyRTH AlertType = "emergency_rth"
	AlertLanded       AlertType = "drone_landed"
	AlertJamming      AlertType = "jamming"
)

// Alert is one notification fanned out by the dispatcher. Unit fields are
// empty for system-wide alerts.
type Alert struct {
	ID            string        `json:"id"`
	Type          AlertType     `json:"type"`
	Severity      Severity      `json:"severity"`
	Timestamp     time.Time     `json:"timestamp"`
	UnitID        string        `json:"drone_id,omitempty"`
	BatteryLevel  *float64      `json:"battery_level,omitempty"`
	ETASeconds    *float64      `json:"estimated_return_time,omitempty"`
	Reason        RTHReason     `json:"reason,omitempty"`
	LandingReason RTHReason     `json:"landing_reason,omitempty"`
	Jamming       *JammingEvent `json:"jamming_event,omitempty"`
}
