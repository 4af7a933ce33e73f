package jamming

import (
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// Detail keys carried by jamming events.
const (
	DetailDropPercent       = "drop_percent"
	DetailPacketLoss        = "packet_loss"
	DetailInterferenceLevel = "interference_level"
	DetailAvailable         = "available"
	DetailAccuracy          = "accuracy"
	DetailMeanLatency       = "avg_latency"
)

const unknownScore = 50

// Score maps an event to a 0-100 style score.
//
//	signal_drop      drop_percent / 10
//	network          packet_loss / 5
//	rf_interference  interference_level * 100
//	gps              80 when unavailable, else 20
func Score(t model.JammingType, details map[string]any) float64 {
	switch t {
	case model.JammingSignalDrop:
		return number(details[DetailDropPercent]) / 10
	case model.JammingNetwork:
		return number(details[DetailPacketLoss]) / 5
	case model.JammingRFInterference:
		return number(details[DetailInterferenceLevel]) * 100
	case model.JammingGPS:
		if available, ok := details[DetailAvailable].(bool); ok && !available {
			return 80
		}
		return 20
	default:
		return unknownScore
	}
}

// Bucket converts a score to a severity at the 80/60/40 boundaries.
func Bucket(score float64) model.Severity {
	switch {
	case score >= 80:
		return model.SeverityCritical
	case score >= 60:
		return model.SeverityHigh
	case score >= 40:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// SeverityOf scores and buckets an event.
func SeverityOf(t model.JammingType, details map[string]any) model.Severity {
	return Bucket(Score(t, details))
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
