package latlon

import "math"

const π = math.Pi

// R is the mean earth radius in meters.
const R = 6371e3

// MetersPerNm is the length of one nautical mile.
const MetersPerNm = 1852.0

type LatLon struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" msgpack:"lon"`
}

func toRadians(a float64) float64 {
	return a * π / 180.0
}

func toDegrees(a float64) float64 {
	return a * 180.0 / π
}

func wrap360(d float64) float64 {
	if 0.0 <= d && d < 360.0 {
		return d
	}
	d1 := math.Mod(d, 360.0)
	if d1 < 0 {
		d1 += 360.0
	}
	return d1
}

// AngleBetween returns the unsigned smallest angle between two bearings, in [0,180].
func AngleBetween(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360.0)
	if d > 180 {
		return 360 - d
	}
	return d
}
