package uplink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	pkgmqtt "github.com/autopeer-io/guardian/pkg/mqtt"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
)

var _ core.Uplink = (*MQTTUplink)(nil)

// returnCommand is the payload published on {root}/command/rth/{unit}.
type returnCommand struct {
	UnitID string           `json:"unit_id"`
	Issued time.Time        `json:"issued_at"`
	Plan   model.ReturnPlan `json:"plan"`
}

// MQTTUplink publishes return plans to each unit's command topic.
type MQTTUplink struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	qos    int
	now    func() time.Time
}

// NewMQTTUplink creates an uplink on an already started client.
func NewMQTTUplink(client pkgmqtt.Client, topics *topic.TopicBuilder, qos int) *MQTTUplink {
	return &MQTTUplink{client: client, topics: topics, qos: qos, now: time.Now}
}

func (m *MQTTUplink) SendReturnCommand(ctx context.Context, unitID string, plan model.ReturnPlan) error {
	payload, err := json.Marshal(returnCommand{UnitID: unitID, Issued: m.now().UTC(), Plan: plan})
	if err != nil {
		return err
	}
	if err := m.client.Publish(ctx, m.topics.ReturnCommand(unitID), m.qos, false, payload); err != nil {
		return fmt.Errorf("publish return command for %s: %w", unitID, err)
	}
	return nil
}
