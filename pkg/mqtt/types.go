package mqtt

import (
	"context"
)

// MessageHandler processes one inbound message.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the broker connection used for alert fan-out, RTH uplink and
// presence. The autopaho-backed implementation lives in client.go; tests use
// mqtttest.Client.
type Client interface {
	// Start connects in the background. Use AwaitConnection to block.
	Start(ctx context.Context) error

	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe routes messages matching topic to handler. Subscriptions are
	// replayed after a reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until the first connection is up or ctx ends.
	AwaitConnection(ctx context.Context) error

	IsConnected() bool
}
