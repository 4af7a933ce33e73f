package fleet

import (
	"math"
	"testing"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

func TestRecordProblems(t *testing.T) {
	ok := model.UnitRecord{ID: "GUARD-01", Battery: 50, Status: model.StatusActive}

	tests := []struct {
		name   string
		mutate func(*model.UnitRecord)
		want   int
	}{
		{"healthy", func(*model.UnitRecord) {}, 0},
		{"healthy returning", func(r *model.UnitRecord) { r.Status, r.ReturningHome = model.StatusReturning, true }, 0},
		{"battery above range", func(r *model.UnitRecord) { r.Battery = 120 }, 1},
		{"battery below range", func(r *model.UnitRecord) { r.Battery = -1 }, 1},
		{"returning flag on landed unit", func(r *model.UnitRecord) { r.Status, r.ReturningHome = model.StatusLanded, true }, 1},
		{"returning without flag", func(r *model.UnitRecord) { r.Status = model.StatusReturning }, 1},
		{"unknown status", func(r *model.UnitRecord) { r.Status = "hovering" }, 1},
		{"non-finite position", func(r *model.UnitRecord) { r.Position.Lat = math.NaN() }, 1},
		{"several problems", func(r *model.UnitRecord) { r.Battery, r.ReturningHome = 200, true }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ok
			tt.mutate(&rec)
			if got := recordProblems(rec); len(got) != tt.want {
				t.Errorf("recordProblems() = %q, want %d problems", got, tt.want)
			}
		})
	}
}
