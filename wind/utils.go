package wind

import "math"

// MsToKnots converts m/s to knots.
const MsToKnots = 1.9438444924406

// Sample is a wind speed in knots and the direction it blows from, in degrees true.
type Sample struct {
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
}

// Valid is false for a sample read from a cell without data.
func (s Sample) Valid() bool {
	return !math.IsNaN(s.Speed) && !math.IsInf(s.Speed, 0) && !math.IsNaN(s.Direction) && !math.IsInf(s.Direction, 0)
}

// ToSample converts eastward/northward components in m/s to a Sample.
func ToSample(u, v float64) Sample {
	speed := math.Sqrt(u*u+v*v) * MsToKnots
	dir := math.Mod(270-math.Atan2(v, u)*180/math.Pi, 360)
	if dir < 0 {
		dir += 360
	}
	return Sample{Speed: speed, Direction: dir}
}

// ToUV is the inverse of ToSample.
func ToUV(s Sample) (float64, float64) {
	speed := s.Speed / MsToKnots
	a := (270 - s.Direction) * math.Pi / 180
	return speed * math.Cos(a), speed * math.Sin(a)
}

// InterpolateUV blends two wind vectors, alpha=0 returning the first one.
func InterpolateUV(u0, v0, u1, v1, alpha float64) (float64, float64) {
	u := u0 + alpha*(u1-u0)
	v := v0 + alpha*(v1-v0)
	return u, v
}

func Twa(heading, wind float64) float64 {
	twa := heading - wind
	for twa <= -180 {
		twa += 360
	}
	for twa > 180 {
		twa -= 360
	}

	return twa
}

func Heading(twa, wind float64) float64 {
	heading := math.Mod(wind+twa, 360)
	if heading < 0 {
		heading += 360
	}
	if heading >= 360 {
		heading = 0
	}

	return heading
}
