package uplink

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

var _ core.Uplink = (*Simulated)(nil)

// Simulated accepts every return command and remembers the last plan sent
// to each unit. It stands in for a radio link when no broker is configured.
type Simulated struct {
	mu    sync.Mutex
	plans map[string]model.ReturnPlan
}

// NewSimulated creates an in-process uplink.
func NewSimulated() *Simulated {
	return &Simulated{plans: make(map[string]model.ReturnPlan)}
}

func (s *Simulated) SendReturnCommand(ctx context.Context, unitID string, plan model.ReturnPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.plans[unitID] = plan
	s.mu.Unlock()

	logr.FromContextOrDiscard(ctx).V(1).Info("Simulated return command delivered",
		"etaSeconds", plan.ETASeconds, "emergency", plan.EmergencySpeed)
	return nil
}

// LastPlan returns the most recent plan sent to unitID.
func (s *Simulated) LastPlan(unitID string) (model.ReturnPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[unitID]
	return p, ok
}
