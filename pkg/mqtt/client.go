package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/guardian/pkg/log"
)

// ErrNotStarted is returned by every operation issued before Start.
var ErrNotStarted = errors.New("mqtt client not started")

type pahoClient struct {
	cfg    *ClientConfig
	logger log.Logger
	cm     *autopaho.ConnectionManager

	mu   sync.RWMutex
	subs map[string]subscription

	connected atomic.Bool
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// NewClient validates cfg and returns an autopaho-backed Client. Nothing is
// dialled until Start.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, errors.New("mqtt config is required")
	}
	setDefaultConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &pahoClient{
		cfg:    cfg,
		logger: cfg.Logger.WithValues("clientID", cfg.ClientID),
		subs:   make(map[string]subscription),
	}, nil
}

func (c *pahoClient) Start(ctx context.Context) error {
	broker, err := url.Parse(c.cfg.BrokerURL)
	if err != nil {
		return fmt.Errorf("invalid broker url: %w", err)
	}

	cm, err := autopaho.NewConnection(ctx, c.connectionConfig(broker))
	if err != nil {
		return fmt.Errorf("failed to start mqtt connection: %w", err)
	}
	c.cm = cm
	c.logger.Info("MQTT client started", "broker", c.cfg.BrokerURL)
	return nil
}

func (c *pahoClient) connectionConfig(broker *url.URL) autopaho.ClientConfig {
	return autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{broker},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectDelay),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		TlsCfg:                        &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify},
		WillMessage:                   c.willMessage(),
		OnConnectionUp:                c.onConnectionUp,
		OnConnectError: func(err error) {
			c.connected.Store(false)
			c.logger.Error(err, "MQTT connection attempt failed")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: c.cfg.ClientID,
			OnClientError: func(err error) {
				c.connected.Store(false)
				c.logger.Error(err, "MQTT client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				c.connected.Store(false)
				reason := ""
				if d.Properties != nil {
					reason = d.Properties.ReasonString
				}
				c.logger.Warn("MQTT broker closed the connection", "reason", reason, "code", d.ReasonCode)
			},
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){c.route},
		},
	}
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		c.logger.Warn("MQTT disconnect was not clean", "error", err)
	}
	c.connected.Store(false)
}

func (c *pahoClient) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	if _, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (c *pahoClient) Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	// Registered before the SUBSCRIBE goes out so a reconnect in between
	// still replays it.
	c.mu.Lock()
	c.subs[topic] = subscription{qos: byte(qos), handler: handler}
	c.mu.Unlock()

	if _, err := c.cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: topic, QoS: byte(qos)}},
	}); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	c.logger.Debug("Subscribed", "topic", topic, "qos", qos)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, topic string) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()

	if _, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{topic}}); err != nil {
		return fmt.Errorf("unsubscribe from %s: %w", topic, err)
	}
	return nil
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool {
	return c.connected.Load()
}

// onConnectionUp replays every registered filter in a single SUBSCRIBE.
func (c *pahoClient) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.connected.Store(true)

	c.mu.RLock()
	opts := make([]paho.SubscribeOptions, 0, len(c.subs))
	for filter, sub := range c.subs {
		opts = append(opts, paho.SubscribeOptions{Topic: filter, QoS: sub.qos})
	}
	c.mu.RUnlock()

	c.logger.Info("MQTT connection up", "subscriptions", len(opts))
	if len(opts) == 0 {
		return
	}
	if _, err := cm.Subscribe(context.Background(), &paho.Subscribe{Subscriptions: opts}); err != nil {
		c.logger.Error(err, "Failed to restore subscriptions", "count", len(opts))
	}
}

// route hands a message to every handler whose filter matches. Handlers run
// on their own goroutine so a slow consumer cannot stall the paho reader.
func (c *pahoClient) route(p paho.PublishReceived) (bool, error) {
	topic, payload := p.Packet.Topic, p.Packet.Payload

	handlers := c.handlersFor(topic)
	if len(handlers) == 0 {
		c.logger.Debug("No handler for topic", "topic", topic)
		return true, nil
	}
	for _, h := range handlers {
		go h(context.Background(), topic, payload)
	}
	return true, nil
}

func (c *pahoClient) handlersFor(topic string) []MessageHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []MessageHandler
	for filter, sub := range c.subs {
		if topicsMatch(topicFilter(filter), topic) {
			out = append(out, sub.handler)
		}
	}
	return out
}

func (c *pahoClient) willMessage() *paho.WillMessage {
	if c.cfg.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   c.cfg.WillTopic,
		Payload: c.cfg.WillPayload,
		QoS:     c.cfg.WillQoS,
		Retain:  c.cfg.WillRetain,
	}
}
