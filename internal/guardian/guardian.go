package guardian

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/guardian/internal/guardian/alert"
	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/guardian/fleet"
	"github.com/autopeer-io/guardian/internal/guardian/jamming"
	httpserver "github.com/autopeer-io/guardian/internal/guardian/server/http"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/mqtt"
	"github.com/autopeer-io/guardian/pkg/mqtt/topic"
)

const disconnectTimeout = 5 * time.Second

// Guardian runs the fleet recovery and signal-integrity controllers and
// exposes the contract used by outer layers: alert subscription, manual
// recovery commands and status snapshots.
type Guardian struct {
	dispatcher *alert.Dispatcher
	fleet      *fleet.Controller
	jamming    *jamming.Controller
	http       *httpserver.Server

	mqtt     mqtt.Client
	topics   *topic.TopicBuilder
	clientID string
	qos      int

	logger log.Logger
}

// Status is the combined snapshot of both controllers.
type Status struct {
	Fleet   model.FleetStatus   `json:"fleet"`
	Jamming model.JammingStatus `json:"jamming"`
}

// Run starts every component and blocks until ctx is done or one of them
// fails.
func (g *Guardian) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	if g.mqtt != nil {
		if err := g.mqtt.Start(ctx); err != nil {
			return fmt.Errorf("failed to start mqtt client: %w", err)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			defer cancel()
			g.mqtt.Disconnect(dctx)
		}()
		eg.Go(func() error { return g.announce(ctx) })
	}

	eg.Go(func() error { return g.fleet.Run(ctx) })
	eg.Go(func() error { return g.jamming.Run(ctx) })
	if g.http != nil {
		eg.Go(func() error { return g.http.Start(ctx) })
	}

	g.logger.Info("Guardian started", "subscribers", g.dispatcher.Len())
	return eg.Wait()
}

// announce waits for the broker, publishes the online presence and
// listens for command acknowledgements.
func (g *Guardian) announce(ctx context.Context) error {
	if err := g.mqtt.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("mqtt connection: %w", err)
	}

	if err := g.mqtt.Publish(ctx, g.topics.Online(g.clientID), g.qos, true, []byte(presenceOnline)); err != nil {
		g.logger.Warn("Failed to publish presence", "error", err)
	}
	if err := g.mqtt.Subscribe(ctx, g.topics.CommandAckWildcard(), g.qos, g.onCommandAck); err != nil {
		g.logger.Warn("Failed to subscribe to command acknowledgements", "error", err)
	}
	return nil
}

func (g *Guardian) onCommandAck(_ context.Context, topic string, payload []byte) {
	g.logger.Info("Return command acknowledged", "topic", topic, "payload", string(payload))
}

// RegisterSubscriber adds an alert observer.
func (g *Guardian) RegisterSubscriber(name string, fn core.Subscriber) {
	g.dispatcher.Register(name, fn)
}

// ReturnToHome requests a manual return for one unit.
func (g *Guardian) ReturnToHome(ctx context.Context, unitID string) error {
	return g.fleet.ReturnToHome(ctx, unitID)
}

// EmergencyReturnAll sends every active unit home in emergency mode.
func (g *Guardian) EmergencyReturnAll(ctx context.Context) ([]string, error) {
	return g.fleet.EmergencyReturnAll(ctx)
}

// Status returns the current fleet and jamming state.
func (g *Guardian) Status() Status {
	return Status{
		Fleet:   g.fleet.Status(),
		Jamming: g.jamming.Status(),
	}
}

// Ready reports whether both controllers are monitoring and, when a broker
// is configured, connected to it.
func (g *Guardian) Ready() error {
	var errs []error
	if !g.fleet.Monitoring() {
		errs = append(errs, errors.New("fleet monitor not running"))
	}
	if !g.jamming.Status().Monitoring {
		errs = append(errs, errors.New("signal monitors not running"))
	}
	if g.mqtt != nil && !g.mqtt.IsConnected() {
		errs = append(errs, errors.New("mqtt broker not connected"))
	}
	return multierr.Combine(errs...)
}
