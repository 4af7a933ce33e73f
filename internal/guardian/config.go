package guardian

import (
	"context"
	"fmt"

	"github.com/autopeer-io/guardian/internal/guardian/alert"
	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/evidence"
	"github.com/autopeer-io/guardian/internal/guardian/fleet"
	"github.com/autopeer-io/guardian/internal/guardian/jamming"
	httpserver "github.com/autopeer-io/guardian/internal/guardian/server/http"
	"github.com/autopeer-io/guardian/internal/guardian/uplink"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
	"github.com/autopeer-io/guardian/pkg/options"
)

type Config struct {
	HttpOptions    *options.HttpOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options
	FleetOptions   *options.FleetOptions
	JammingOptions *options.JammingOptions
}

// NewGuardian wires the adapters into the two controllers.
func (cfg *Config) NewGuardian(ctx context.Context) (*Guardian, error) {
	g := &Guardian{
		logger: log.WithName("guardian"),
	}

	// 1. Alert dispatcher, with the log subscriber always attached
	g.dispatcher = alert.NewDispatcher(log.WithName("alert"))
	g.dispatcher.Register("log", alert.LogSubscriber(log.WithName("alert")))

	// 2. Broker: alert fan-out and the navigation uplink
	var up core.Uplink = uplink.NewSimulated()
	if cfg.MqttOptions.Enabled {
		g.topics = topic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)
		client, err := InitializeMQTTClient(cfg.MqttOptions, g.topics)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		g.mqtt = client
		g.clientID = cfg.MqttOptions.ClientID
		g.qos = cfg.MqttOptions.QoS
		g.dispatcher.Register("mqtt", alert.MQTTSubscriber(client, g.topics, cfg.MqttOptions.QoS))
		up = uplink.NewMQTTUplink(client, g.topics, cfg.MqttOptions.QoS)
	}

	// 3. Evidence persistence, mirrored to object storage when configured
	var mirror core.ObjectStore
	if cfg.S3Options.Enabled {
		provider, err := InitializeStorage(ctx, cfg.S3Options)
		if err != nil {
			return nil, fmt.Errorf("failed to init storage: %w", err)
		}
		mirror = provider
	}
	store := evidence.NewFileStore(cfg.JammingOptions.EvidenceDir, cfg.FleetOptions.LogDir, mirror, log.WithName("evidence"))

	// 4. Controllers
	probes, err := InitializeProbes(cfg.JammingOptions)
	if err != nil {
		return nil, err
	}
	g.fleet = fleet.NewController(cfg.FleetOptions, up, g.dispatcher, store, fleet.WithLogger(log.WithName("fleet")))
	g.jamming = jamming.NewController(cfg.JammingOptions, probes, g.dispatcher, store, jamming.WithLogger(log.WithName("jamming")))

	// 5. Health, metrics and status endpoints
	if cfg.HttpOptions.Enabled {
		g.http = httpserver.NewServer(cfg.HttpOptions, g.Ready, func() any { return g.Status() }, log.WithName("http"))
	}

	return g, nil
}
