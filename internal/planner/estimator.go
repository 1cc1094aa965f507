package planner

import (
	"fmt"
	"math"
)

const (
	// KilometersPerDegree approximates one degree of latitude.
	KilometersPerDegree = 111.0
	// DefaultMetersPerMinute is the assumed walking throughput.
	DefaultMetersPerMinute = 100.0
)

// OriginEstimator estimates walking minutes between the user and a place.
type OriginEstimator interface {
	Minutes(from, to Point) float64
}

// PlanarEstimator sums the north-south and east-west legs on a flat projection,
// scaling longitude by the cosine of the mean latitude. It is not a geodesic or
// road-network distance; the error is only acceptable for short intra-city
// walks, and it feeds the budget feasibility check directly.
type PlanarEstimator struct {
	MetersPerMinute float64
}

func NewPlanarEstimator(metersPerMinute float64) PlanarEstimator {
	if metersPerMinute <= 0 {
		metersPerMinute = DefaultMetersPerMinute
	}
	return PlanarEstimator{MetersPerMinute: metersPerMinute}
}

func (e PlanarEstimator) Minutes(from, to Point) float64 {
	speed := e.MetersPerMinute
	if speed <= 0 {
		speed = DefaultMetersPerMinute
	}

	meanLat := (from.Lat + to.Lat) / 2 * math.Pi / 180
	latKm := math.Abs(to.Lat-from.Lat) * KilometersPerDegree
	lonKm := math.Abs(to.Lon-from.Lon) * KilometersPerDegree * math.Cos(meanLat)

	return (latKm + lonKm) * 1000 / speed
}

// EarthRadiusKm is the mean Earth radius used by HaversineEstimator.
const EarthRadiusKm = 6371.0

// HaversineEstimator uses the great-circle distance. Off the meridians it is
// shorter than the planar estimate, which sums both legs.
type HaversineEstimator struct {
	MetersPerMinute float64
}

func NewHaversineEstimator(metersPerMinute float64) HaversineEstimator {
	if metersPerMinute <= 0 {
		metersPerMinute = DefaultMetersPerMinute
	}
	return HaversineEstimator{MetersPerMinute: metersPerMinute}
}

func (e HaversineEstimator) Minutes(from, to Point) float64 {
	speed := e.MetersPerMinute
	if speed <= 0 {
		speed = DefaultMetersPerMinute
	}

	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (to.Lon - from.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	km := EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return km * 1000 / speed
}

// NewOriginEstimator returns the estimator registered under name: "planar"
// (the default) or "haversine".
func NewOriginEstimator(name string, metersPerMinute float64) (OriginEstimator, error) {
	switch name {
	case "", "planar":
		return NewPlanarEstimator(metersPerMinute), nil
	case "haversine":
		return NewHaversineEstimator(metersPerMinute), nil
	default:
		return nil, fmt.Errorf("unknown origin estimator %q", name)
	}
}
