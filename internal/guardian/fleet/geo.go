package fleet

import (
	"math"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between a and b in meters.
// Altitude is ignored.
func Distance(a, b model.Position) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, h)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PlanReturn computes the route from start to home at the given cruise
// speed. Emergency plans scale the ETA by emergencyFactor. A non-positive
// speed yields a zero ETA.
func PlanReturn(start, home model.Position, speed float64, emergency bool, emergencyFactor float64) model.ReturnPlan {
	plan := model.ReturnPlan{
		Start:          start,
		Home:           model.Position{Lat: home.Lat, Lon: home.Lon},
		DistanceMeters: Distance(start, home),
		EmergencySpeed: emergency,
	}
	if speed > 0 {
		plan.ETASeconds = plan.DistanceMeters / speed
	}
	if emergency {
		plan.ETASeconds *= emergencyFactor
	}
	return plan
}
