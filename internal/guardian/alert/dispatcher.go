package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/internal/pkg/metrics"
	"github.com/autopeer-io/guardian/pkg/log"
)

// ErrSubscriberPanic wraps a panic recovered from a subscriber.
var ErrSubscriberPanic = errors.New("alert subscriber panicked")

var _ core.AlertPublisher = (*Dispatcher)(nil)

type registration struct {
	name string
	fn   core.Subscriber
}

// Dispatcher delivers alerts to subscribers in registration order. A
// failing subscriber is logged and skipped; delivery to the others and the
// caller are unaffected.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []registration
	logger log.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Dispatcher{logger: logger}
}

// Register appends a subscriber. name only appears in logs.
func (d *Dispatcher) Register(name string, fn core.Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, registration{name: name, fn: fn})
}

// Len returns the number of registered subscribers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Publish delivers alert to every subscriber.
func (d *Dispatcher) Publish(ctx context.Context, alert model.Alert) {
	d.mu.RLock()
	subs := append([]registration(nil), d.subs...)
	d.mu.RUnlock()

	for _, s := range subs {
		if err := invoke(ctx, s.fn, alert); err != nil {
			metrics.SubscriberFailuresTotal.WithLabelValues(string(alert.Type)).Inc()
			d.logger.Error(err, "Alert subscriber failed", "subscriber", s.name, "alert", alert.Type, "alertID", alert.ID)
		}
	}
}

func invoke(ctx context.Context, fn core.Subscriber, alert model.Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscriberPanic, r)
		}
	}()
	return fn(ctx, alert)
}
