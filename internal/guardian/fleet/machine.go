package fleet

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	fsmutil "github.com/autopeer-io/guardian/internal/pkg/util/fsm"
)

const (
	// EventReturnHome (active -> returning) starts a return.
	EventReturnHome = "return_home"
	// EventLand (returning -> landed) completes a journey. There is no way
	// back to active from returning.
	EventLand = "land"
)

// returnRequest is the argument of EventReturnHome.
type returnRequest struct {
	reason model.RTHReason
	plan   model.ReturnPlan
}

// newUnitMachine builds the lifecycle FSM for u. Callbacks mutate u.rec and
// run while the caller holds u.mu.
func newUnitMachine(u *unit) *fsm.FSM {
	events := fsm.Events{
		{Name: EventReturnHome, Src: []string{string(model.StatusActive)}, Dst: string(model.StatusReturning)},
		{Name: EventLand, Src: []string{string(model.StatusReturning)}, Dst: string(model.StatusLanded)},
	}

	callbacks := fsm.Callbacks{
		"before_" + EventReturnHome: fsmutil.WrapEvent(u.guardNotReturning),

		"enter_" + string(model.StatusReturning): fsmutil.WrapEvent(u.enterReturning),
		"enter_" + string(model.StatusLanded):    fsmutil.WrapEvent(u.enterLanded),
	}

	initial := string(u.rec.Status)
	if initial == "" {
		initial = string(model.StatusActive)
	}
	return fsm.NewFSM(initial, events, callbacks)
}

func (u *unit) guardNotReturning(_ context.Context, _ *fsm.Event) error {
	if u.rec.ReturningHome {
		return ErrAlreadyReturning
	}
	return nil
}

func (u *unit) enterReturning(_ context.Context, e *fsm.Event) error {
	req := fsmutil.ArgOf[returnRequest](e, 0)
	u.rec.Status = model.StatusReturning
	u.rec.ReturningHome = true
	u.rec.RTHReason = req.reason
	u.rec.EmergencyMode = req.plan.EmergencySpeed
	u.rec.ETASeconds = req.plan.ETASeconds
	return nil
}

func (u *unit) enterLanded(_ context.Context, e *fsm.Event) error {
	home := fsmutil.ArgOf[model.Position](e, 0)
	u.rec.Status = model.StatusLanded
	u.rec.ReturningHome = false
	u.rec.EmergencyMode = false
	u.rec.ETASeconds = 0
	u.rec.Position = model.Position{Lat: home.Lat, Lon: home.Lon}
	return nil
}
