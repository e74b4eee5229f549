package latlon

import "math"

// Planar treats latitude and longitude degrees as a flat cartesian plane.
// Only valid for short legs; it is the model used by the route loop.
type Planar struct{}

func delta(from, to LatLon) (float64, float64) {
	x := to.Lon - from.Lon
	y := to.Lat - from.Lat

	if x > 180 {
		x -= 360
	} else if x < -180 {
		x += 360
	}
	return x, y
}

// DistanceTo returns the distance in degrees.
func (Planar) DistanceTo(from, to LatLon) float64 {
	x, y := delta(from, to)
	return math.Hypot(x, y)
}

// BearingTo returns the planar bearing atan2(Δlon, Δlat) in [0,360).
func (Planar) BearingTo(from, to LatLon) float64 {
	x, y := delta(from, to)
	return wrap360(toDegrees(math.Atan2(x, y)))
}

// Advance moves from along heading by distance nautical miles, using
// 1 nm = 1/60° on both axes. Longitude is not corrected by cos(latitude).
func (Planar) Advance(from LatLon, heading float64, distance float64) LatLon {
	h := toRadians(heading)
	return LatLon{
		Lat: from.Lat + distance*math.Cos(h)/60.0,
		Lon: from.Lon + distance*math.Sin(h)/60.0,
	}
}
