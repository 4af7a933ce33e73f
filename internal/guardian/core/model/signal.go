package model

import "time"

// JammingType identifies the probe dimension that breached.
type JammingType string

const (
	JammingSignalDrop     JammingType = "signal_drop"
	JammingNetwork        JammingType = "network"
	JammingRFInterference JammingType = "rf_interference"
	JammingGPS            JammingType = "gps"
)

// Severity buckets a jamming score or alert.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Channel is a communication link the guardian can fail over to.
type Channel string

const (
	ChannelWiFi     Channel = "wifi"
	ChannelCellular Channel = "cellular"
	ChannelEthernet Channel = "ethernet"
)

// SignalSample is one reading of link strength.
type SignalSample struct {
	Timestamp time.Time `json:"timestamp"`
	WiFi      float64   `json:"wifi_strength"`
	Cellular  *float64  `json:"cellular_strength,omitempty"`

	// Substituted marks a reading standing in for a failed probe read.
	Substituted bool `json:"substituted,omitempty"`
}

// EndpointProbe is the outcome of one reachability check.
type EndpointProbe struct {
	Endpoint  string   `json:"endpoint"`
	Reachable bool     `json:"reachable"`
	LatencyMS *float64 `json:"latency_ms,omitempty"`
}

// NetworkHealth is the latest reachability snapshot. MeanLatencyMS is nil
// when no endpoint answered.
type NetworkHealth struct {
	Timestamp     time.Time       `json:"timestamp"`
	Probes        []EndpointProbe `json:"probes"`
	PacketLoss    float64         `json:"packet_loss"`
	MeanLatencyMS *float64        `json:"avg_latency,omitempty"`
}

// Clone returns a deep copy.
func (n *NetworkHealth) Clone() *NetworkHealth {
	if n == nil {
		return nil
	}
	out := *n
	out.Probes = append([]EndpointProbe(nil), n.Probes...)
	return &out
}

// GPSFix is the receiver health reported by the GPS probe.
type GPSFix struct {
	Available   bool    `json:"available"`
	AccuracyM   float64 `json:"accuracy"`
	Substituted bool    `json:"substituted,omitempty"`
}

// JammingEvent is created by the coordinator and never modified afterwards.
type JammingEvent struct {
	ID        string         `json:"id"`
	Type      JammingType    `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
	Severity  Severity       `json:"severity"`
}

// JammingStatus is the externally visible state of the signal controller.
type JammingStatus struct {
	Monitoring     bool           `json:"monitoring"`
	JammingActive  bool           `json:"jamming_active"`
	CurrentChannel Channel        `json:"current_channel"`
	LastSample     *SignalSample  `json:"signal_strength,omitempty"`
	NetworkHealth  *NetworkHealth `json:"network_health,omitempty"`
	GPS            *GPSFix        `json:"gps,omitempty"`
	LastUpdate     time.Time      `json:"last_update"`

	// Mitigations raised by the last event, cleared when its cooldown ends.
	TxPowerBoost     bool `json:"tx_power_boost"`
	FrequencyHopping bool `json:"frequency_hopping"`
}

// NetworkIO holds cumulative interface counters.
type NetworkIO struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}

// SystemState is the host resource snapshot stored with evidence.
type SystemState struct {
	CPUUsage    float64   `json:"cpu_usage"`
	MemoryUsage float64   `json:"memory_usage"`
	NetworkIO   NetworkIO `json:"network_io"`
}

// JammingEvidence is the persisted record of a jamming event.
type JammingEvidence struct {
	Event         JammingEvent   `json:"event"`
	SignalHistory []SignalSample `json:"signal_history"`
	NetworkHealth *NetworkHealth `json:"network_health"`
	SystemState   SystemState    `json:"system_state"`
}
