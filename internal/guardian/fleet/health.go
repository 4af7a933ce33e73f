package fleet

import (
	"context"
	"fmt"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// checkHealth scans a snapshot of the store and logs records that break
// an invariant. It never modifies a record.
func (c *Controller) checkHealth(_ context.Context) {
	for id, rec := range c.store.Snapshot() {
		for _, problem := range recordProblems(rec) {
			c.logger.Warn("Unit record failed health check", "unit", id, "problem", problem)
		}
	}
}

// recordProblems lists the invariant violations of rec.
func recordProblems(rec model.UnitRecord) []string {
	var problems []string
	if rec.Battery < 0 || rec.Battery > 100 {
		problems = append(problems, fmt.Sprintf("battery %.2f outside [0, 100]", rec.Battery))
	}
	switch rec.Status {
	case model.StatusActive, model.StatusLanded:
		if rec.ReturningHome {
			problems = append(problems, fmt.Sprintf("returning_home set while %s", rec.Status))
		}
	case model.StatusReturning:
		if !rec.ReturningHome {
			problems = append(problems, "returning without returning_home")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown status %q", rec.Status))
	}
	if !rec.Position.IsFinite() {
		problems = append(problems, "position is not finite")
	}
	return problems
}
