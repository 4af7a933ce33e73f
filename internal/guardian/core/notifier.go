package core

import (
	"context"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// Subscriber receives dispatched alerts. Returned errors are logged by the
// dispatcher and never reach the component that raised the alert.
type Subscriber func(ctx context.Context, alert model.Alert) error

// AlertPublisher is how the controllers hand alerts to the dispatcher.
type AlertPublisher interface {
	Publish(ctx context.Context, alert model.Alert)
}
