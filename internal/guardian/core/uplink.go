package core

import (
	"context"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// Uplink delivers a return-to-home command to a unit. The default is a
// local simulation; the MQTT uplink publishes the plan to the unit's
// command topic.
type Uplink interface {
	SendReturnCommand(ctx context.Context, unitID string, plan model.ReturnPlan) error
}
