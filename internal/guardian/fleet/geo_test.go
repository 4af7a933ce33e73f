package fleet

import (
	"math"
	"testing"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

func TestDistance(t *testing.T) {
	home := model.Position{Lat: 28.7041, Lon: 77.1025}
	tests := []struct {
		name string
		a, b model.Position
		want float64
	}{
		{"same point", home, home, 0},
		{"same point different altitude", home, model.Position{Lat: home.Lat, Lon: home.Lon, Alt: 120}, 0},
		{"one degree of latitude", model.Position{Lat: 0, Lon: 0}, model.Position{Lat: 1, Lon: 0}, 2 * math.Pi * EarthRadiusMeters / 360},
		{"antipodes", model.Position{Lat: 0, Lon: 0}, model.Position{Lat: 0, Lon: 180}, math.Pi * EarthRadiusMeters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
			if got, back := Distance(tt.a, tt.b), Distance(tt.b, tt.a); math.Abs(got-back) > 1e-6 {
				t.Errorf("Distance not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestPlanReturn(t *testing.T) {
	home := model.Position{Lat: 0, Lon: 0}
	start := model.Position{Lat: 0.01, Lon: 0, Alt: 100}
	dist := Distance(start, home)

	plan := PlanReturn(start, home, 15, false, 0.7)
	if math.Abs(plan.ETASeconds-dist/15) > 1e-9 {
		t.Errorf("ETA = %v, want %v", plan.ETASeconds, dist/15)
	}
	if plan.EmergencySpeed {
		t.Error("normal plan flagged as emergency")
	}

	emergency := PlanReturn(start, home, 15, true, 0.7)
	if math.Abs(emergency.ETASeconds-plan.ETASeconds*0.7) > 1e-9 {
		t.Errorf("emergency ETA = %v, want %v", emergency.ETASeconds, plan.ETASeconds*0.7)
	}
	if !emergency.EmergencySpeed {
		t.Error("emergency plan not flagged")
	}

	if got := PlanReturn(start, home, 0, false, 0.7).ETASeconds; got != 0 {
		t.Errorf("ETA at zero speed = %v, want 0", got)
	}
	if got := PlanReturn(start, home, -3, true, 0.7).ETASeconds; got != 0 {
		t.Errorf("ETA at negative speed = %v, want 0", got)
	}
}

func TestJourneyInterpolation(t *testing.T) {
	home := model.Position{Lat: 28.7041, Lon: 77.1025}
	start := model.Position{Lat: 28.75, Lon: 77.2, Alt: 120}
	plan := PlanReturn(start, home, 15, false, 0.7)

	prevETA := math.Inf(1)
	prevDist := math.Inf(1)
	for i := 0; i <= 10; i++ {
		progress := float64(i) / 10
		eta := plan.RemainingETA(progress)
		if eta > prevETA {
			t.Fatalf("ETA increased at progress %v: %v > %v", progress, eta, prevETA)
		}
		prevETA = eta

		pos := plan.PositionAt(progress)
		if d := Distance(pos, home); d > prevDist+1e-6 {
			t.Fatalf("moved away from home at progress %v", progress)
		} else {
			prevDist = d
		}
	}

	if got := plan.RemainingETA(1); got != 0 {
		t.Errorf("RemainingETA(1) = %v, want 0", got)
	}
	end := plan.PositionAt(1)
	if Distance(end, home) > 1e-6 || end.Alt != 0 {
		t.Errorf("PositionAt(1) = %+v, want home at ground level", end)
	}
	if got := plan.PositionAt(0); got != start {
		t.Errorf("PositionAt(0) = %+v, want %+v", got, start)
	}
}
