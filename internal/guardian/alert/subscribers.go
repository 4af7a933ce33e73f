package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/pkg/log"
	pkgmqtt "github.com/autopeer-io/guardian/pkg/mqtt"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
)

// LogSubscriber writes every alert to logger. Critical and high alerts are
// logged at warn level.
func LogSubscriber(logger log.Logger) core.Subscriber {
	return func(_ context.Context, a model.Alert) error {
		kv := []any{"id", a.ID, "type", a.Type, "severity", a.Severity}
		if a.UnitID != "" {
			kv = append(kv, "unit", a.UnitID)
		}
		if a.BatteryLevel != nil {
			kv = append(kv, "battery", *a.BatteryLevel)
		}
		if a.ETASeconds != nil {
			kv = append(kv, "etaSeconds", *a.ETASeconds)
		}
		if a.Jamming != nil {
			kv = append(kv, "jammingType", a.Jamming.Type, "details", a.Jamming.Details)
		}

		switch a.Severity {
		case model.SeverityCritical, model.SeverityHigh:
			logger.Warn("Alert", kv...)
		default:
			logger.Info("Alert", kv...)
		}
		return nil
	}
}

// MQTTSubscriber publishes alerts as JSON on {root}/alert/{type}/{unit|system}.
func MQTTSubscriber(client pkgmqtt.Client, topics *topic.TopicBuilder, qos int) core.Subscriber {
	return func(ctx context.Context, a model.Alert) error {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode alert %s: %w", a.ID, err)
		}
		return client.Publish(ctx, topics.Alert(string(a.Type), a.UnitID), qos, false, payload)
	}
}
