package route

import (
	"math"
	"testing"

	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/wind"
)

type noPolar struct{}

func (noPolar) BoatSpeed(float64, float64) float64 { return math.NaN() }

// upwindOnly fails every lookup below 90°.
type upwindOnly struct{}

func (upwindOnly) BoatSpeed(tws, twa float64) float64 {
	if math.Abs(twa) < 90 {
		return math.NaN()
	}
	return 10
}

func TestChooseHeadingUpwind(t *testing.T) {
	from := latlon.LatLon{}
	to := latlon.LatLon{Lat: 5}
	c := ChooseHeading(from, to, wind.Sample{Speed: 15, Direction: 0}, imoca(t))

	if c.Twa != -45 || c.Heading != 315 {
		t.Errorf("ChooseHeading() = twa %f, heading %f; want -45, 315", c.Twa, c.Heading)
	}
	if math.Abs(c.Speed-8.5) > 1e-9 {
		t.Errorf("ChooseHeading().Speed = %f; want 8.5", c.Speed)
	}
	if c.Bearing != 0 {
		t.Errorf("ChooseHeading().Bearing = %f; want 0", c.Bearing)
	}
}

func TestChooseHeadingReach(t *testing.T) {
	c := ChooseHeading(latlon.LatLon{}, latlon.LatLon{Lat: 5, Lon: 5}, westerly, imoca(t))
	if c.Twa != 135 || c.Heading != 45 || math.Abs(c.Vmg-c.Speed) > 1e-9 {
		t.Errorf("ChooseHeading() = %+v; want twa 135 straight to the target", c)
	}
}

func TestChooseHeadingDeterministic(t *testing.T) {
	p := imoca(t)
	from := latlon.LatLon{Lat: 47.5, Lon: -3.2}
	to := latlon.LatLon{Lat: 46.1, Lon: -5.9}
	w := wind.Sample{Speed: 17.3, Direction: 241.7}

	first := ChooseHeading(from, to, w, p)
	for i := 0; i < 10; i++ {
		if c := ChooseHeading(from, to, w, p); c != first {
			t.Fatalf("ChooseHeading() = %+v; then %+v", first, c)
		}
	}
	if first.Heading < 0 || first.Heading >= 360 || math.Abs(first.Twa) < 30 || math.Abs(first.Twa) > 180 {
		t.Errorf("ChooseHeading() = %+v; out of range", first)
	}
}

func TestChooseHeadingStalled(t *testing.T) {
	to := latlon.LatLon{Lat: 1, Lon: 1}
	c := ChooseHeading(latlon.LatLon{}, to, westerly, noPolar{})
	if !c.Stalled || c.Speed != 0 || math.Abs(c.Heading-45) > 1e-9 {
		t.Errorf("ChooseHeading(no polar) = %+v; want stalled on the bearing", c)
	}
}

func TestChooseHeadingWithoutWindData(t *testing.T) {
	to := latlon.LatLon{Lat: 1, Lon: 1}
	for _, w := range []wind.Sample{
		{Speed: math.NaN(), Direction: math.NaN()},
		{Speed: 10, Direction: math.NaN()},
		{Speed: math.Inf(1), Direction: 90},
	} {
		c := ChooseHeading(latlon.LatLon{}, to, w, imoca(t))
		if !c.Stalled || c.Speed != 0 || math.Abs(c.Heading-45) > 1e-9 || math.IsNaN(c.Twa) {
			t.Errorf("ChooseHeading(%v) = %+v; want stalled on the bearing", w, c)
		}
	}
}

func TestChooseHeadingSkipsFailedLookups(t *testing.T) {
	// Straight upwind: every angle under 90° fails, the beam reach wins.
	c := ChooseHeading(latlon.LatLon{}, latlon.LatLon{Lat: 1}, wind.Sample{Speed: 10, Direction: 0}, upwindOnly{})
	if c.Stalled || math.Abs(c.Twa) != 90 {
		t.Errorf("ChooseHeading() = %+v; want a beam reach", c)
	}
	if c.Twa != -90 || c.Heading != 270 {
		t.Errorf("ChooseHeading() = twa %f heading %f; want the first one found, -90 and 270", c.Twa, c.Heading)
	}
}
