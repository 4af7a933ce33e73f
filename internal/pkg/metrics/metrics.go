package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every guardian collector and is served at /metrics.
var Registry = prometheus.NewRegistry()

var (
	// RTHTriggeredTotal counts return-to-home triggers.
	RTHTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_rth_triggered_total",
			Help: "Total number of return-to-home triggers.",
		},
		[]string{"reason"}, // low_battery, critical_battery, manual
	)

	// RTHFailedTotal counts return commands the uplink did not deliver.
	RTHFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_rth_failed_total",
			Help: "Total number of return-to-home commands that could not be delivered.",
		},
		[]string{"reason"},
	)

	// LandingsTotal counts completed return journeys.
	LandingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_landings_total",
			Help: "Total number of completed return journeys.",
		},
		[]string{"reason"},
	)

	// UnitBattery exposes each unit's battery percentage.
	UnitBattery = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guardian_unit_battery_percent",
			Help: "Battery level of each fleet unit.",
		},
		[]string{"unit"},
	)

	// JammingEventsTotal counts jamming events that passed the debounce.
	JammingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_jamming_events_total",
			Help: "Total number of jamming events raised.",
		},
		[]string{"type", "severity"},
	)

	// JammingSuppressedTotal counts breaches dropped during the cooldown.
	JammingSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_jamming_suppressed_total",
			Help: "Total number of breaches suppressed while a jamming event was active.",
		},
		[]string{"type"},
	)

	// JammingActive is 1 while a jamming event is in flight.
	JammingActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guardian_jamming_active",
			Help: "Whether a jamming event is currently active (1) or not (0).",
		},
	)

	// ChannelFailoverTotal counts failover attempts by outcome.
	ChannelFailoverTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_channel_failover_total",
			Help: "Total number of channel failover attempts.",
		},
		[]string{"result"}, // switched, no_backup
	)

	// ProbeErrorsTotal counts failed probe reads.
	ProbeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_probe_errors_total",
			Help: "Total number of probe read failures.",
		},
		[]string{"probe"}, // signal, network, interference, gps
	)

	// SubscriberFailuresTotal counts alert subscribers that errored or panicked.
	SubscriberFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_alert_subscriber_failures_total",
			Help: "Total number of alert deliveries that failed in a subscriber.",
		},
		[]string{"alert_type"},
	)

	// EvidenceWriteFailuresTotal counts evidence and emergency log writes that failed.
	EvidenceWriteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_evidence_write_failures_total",
			Help: "Total number of evidence or emergency log writes that failed.",
		},
		[]string{"kind"}, // jamming, emergency_landing
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RTHTriggeredTotal,
		RTHFailedTotal,
		LandingsTotal,
		UnitBattery,
		JammingEventsTotal,
		JammingSuppressedTotal,
		JammingActive,
		ChannelFailoverTotal,
		ProbeErrorsTotal,
		SubscriberFailuresTotal,
		EvidenceWriteFailuresTotal,
	)
}
