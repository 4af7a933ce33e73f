// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"context"
	"sync"

	"github.com/autopeer-io/guardian/pkg/mqtt"
)

var _ mqtt.Client = (*FakeClient)(nil)

// Message is one publish recorded by FakeClient.
type Message struct {
	Topic   string
	QoS     int
	Retain  bool
	Payload []byte
}

// FakeClient records publishes and fails them with PublishErr when set.
type FakeClient struct {
	mu         sync.Mutex
	messages   []Message
	handlers   map[string]mqtt.MessageHandler
	started    bool
	PublishErr error
}

// NewFakeClient returns an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *FakeClient) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *FakeClient) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
}

func (f *FakeClient) Publish(_ context.Context, topic string, qos int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.messages = append(f.messages, Message{Topic: topic, QoS: qos, Retain: retain, Payload: append([]byte(nil), payload...)})
	return nil
}

func (f *FakeClient) Subscribe(_ context.Context, topic string, _ int, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *FakeClient) Unsubscribe(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *FakeClient) AwaitConnection(context.Context) error { return nil }

func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Messages returns a copy of every recorded publish.
func (f *FakeClient) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}
