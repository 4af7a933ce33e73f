package guardian

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/autopeer-io/guardian/internal/guardian/jamming"
	"github.com/autopeer-io/guardian/internal/guardian/probe"
	"github.com/autopeer-io/guardian/internal/guardian/storage"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/mqtt"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
	"github.com/autopeer-io/guardian/pkg/options"
)

const (
	presenceOnline  = "online"
	presenceOffline = "offline"

	bucketCheckTimeout = 10 * time.Second
)

// InitializeMQTTClient creates the broker client. The broker publishes a
// retained offline presence for the guardian when the connection drops.
func InitializeMQTTClient(opts *options.MqttOptions, topics *topic.TopicBuilder) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("guardian-%s", hostname)
	}
	cfg.WillTopic = topics.Online(cfg.ClientID)
	cfg.WillPayload = []byte(presenceOffline)
	cfg.WillQoS = byte(opts.QoS)
	cfg.WillRetain = true

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return client, nil
}

// InitializeStorage creates the evidence archive and makes sure its bucket
// exists.
func InitializeStorage(ctx context.Context, opts *options.S3Options) (storage.Provider, error) {
	provider, err := storage.NewMinIOProvider(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()
	if err := provider.CheckBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare bucket %q: %w", opts.BucketName, err)
	}

	return provider, nil
}

// InitializeProbes selects the telemetry adapters for the signal monitors.
func InitializeProbes(opts *options.JammingOptions) (jamming.Probes, error) {
	switch opts.ProbeMode {
	case options.ProbeModeSimulated:
		sim := probe.NewSimulated()
		return jamming.Probes{Signal: sim, Reachability: sim, GPS: sim, Channels: sim, Host: sim}, nil
	case options.ProbeModeHost:
		host := probe.NewHost(opts.DialTimeout)
		return jamming.Probes{Signal: host, Reachability: host, GPS: host, Channels: host, Host: host}, nil
	default:
		return jamming.Probes{}, fmt.Errorf("unknown probe mode %q", opts.ProbeMode)
	}
}
