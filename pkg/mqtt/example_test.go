package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/mqtt"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
)

// ExampleClient shows how the guardian wires its uplink: create, start,
// subscribe to acknowledgements, wait for the broker and publish.
func ExampleClient() {
	tb := topic.NewTopicBuilder("guardian/v1")

	cfg := &mqtt.ClientConfig{
		BrokerURL:          "tcp://localhost:1883",
		ClientID:           "guardian-example",
		KeepAlive:          60,
		ConnectTimeout:     5 * time.Second,
		InsecureSkipVerify: true,
		WillTopic:          tb.Online("guardian-example"),
		WillPayload:        []byte("offline"),
		WillQoS:            1,
		WillRetain:         true,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start returns immediately; the connection is managed in the background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	onAck := func(ctx context.Context, topic string, payload []byte) {
		fmt.Printf("ack on %s: %s\n", topic, string(payload))
	}
	if err := client.Subscribe(ctx, tb.CommandAckWildcard(), 1, onAck); err != nil {
		log.Error(err, "Failed to subscribe")
	}

	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	payload := []byte(`{"unit_id":"GUARD-01","eta_seconds":42.5}`)
	if err := client.Publish(ctx, tb.ReturnCommand("GUARD-01"), 1, false, payload); err != nil {
		log.Error(err, "Failed to publish return command")
	}

	client.Disconnect(ctx)
}
