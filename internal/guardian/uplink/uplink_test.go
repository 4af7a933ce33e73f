package uplink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/pkg/mqtt/mqtttest"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
)

func TestMQTTUplinkPublishesPlan(t *testing.T) {
	client := mqtttest.NewFakeClient()
	up := NewMQTTUplink(client, topic.NewTopicBuilder("guardian/v1"), 1)

	plan := model.ReturnPlan{DistanceMeters: 300, ETASeconds: 20, Reason: model.ReasonLowBattery}
	if err := up.SendReturnCommand(context.Background(), "GUARD-01", plan); err != nil {
		t.Fatalf("SendReturnCommand() error = %v", err)
	}

	msgs := client.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(msgs))
	}
	if msgs[0].Topic != "guardian/v1/command/rth/GUARD-01" || msgs[0].QoS != 1 {
		t.Errorf("unexpected publish: %+v", msgs[0])
	}

	var got returnCommand
	if err := json.Unmarshal(msgs[0].Payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.UnitID != "GUARD-01" || got.Plan.ETASeconds != 20 || got.Plan.Reason != model.ReasonLowBattery {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestMQTTUplinkReportsPublishFailure(t *testing.T) {
	client := mqtttest.NewFakeClient()
	client.PublishErr = errors.New("broker down")
	up := NewMQTTUplink(client, topic.NewTopicBuilder("guardian/v1"), 1)

	err := up.SendReturnCommand(context.Background(), "GUARD-02", model.ReturnPlan{})
	if !errors.Is(err, client.PublishErr) {
		t.Errorf("expected wrapped publish error, got %v", err)
	}
}

func TestSimulatedRemembersLastPlan(t *testing.T) {
	s := NewSimulated()
	if err := s.SendReturnCommand(context.Background(), "GUARD-03", model.ReturnPlan{ETASeconds: 5}); err != nil {
		t.Fatal(err)
	}
	p, ok := s.LastPlan("GUARD-03")
	if !ok || p.ETASeconds != 5 {
		t.Errorf("LastPlan() = %+v, %v", p, ok)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SendReturnCommand(ctx, "GUARD-03", model.ReturnPlan{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
