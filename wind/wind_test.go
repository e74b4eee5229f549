package wind

import (
	"math"
	"testing"

	"github.com/a-bouts/nav-sim/latlon"
)

// uniformGrid builds a 3x3 grid around (0,0) with one degree spacing where
// every step holds the given u,v everywhere.
func uniformGrid(steps []float64, u, v []float64) *Grid {
	g := &Grid{Lat0: -1, Lon0: -1, ΔLat: 1, ΔLon: 1, NLat: 3, NLon: 3, Steps: steps}
	for s := range steps {
		us := make([][]float64, 3)
		vs := make([][]float64, 3)
		for i := 0; i < 3; i++ {
			us[i] = []float64{u[s], u[s], u[s]}
			vs[i] = []float64{v[s], v[s], v[s]}
		}
		g.U = append(g.U, us)
		g.V = append(g.V, vs)
	}
	return g
}

func TestToSample(t *testing.T) {
	tests := []struct {
		name      string
		u, v      float64
		direction float64
	}{
		{"from west", 1, 0, 270},
		{"from south", 0, 1, 180},
		{"from east", -1, 0, 90},
		{"from north", 0, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ToSample(tt.u, tt.v)
			if math.Abs(s.Direction-tt.direction) > 1e-9 {
				t.Errorf("ToSample(%f, %f).Direction = %f; want %f", tt.u, tt.v, s.Direction, tt.direction)
			}
			if math.Abs(s.Speed-MsToKnots) > 1e-9 {
				t.Errorf("ToSample(%f, %f).Speed = %f; want %f", tt.u, tt.v, s.Speed, MsToKnots)
			}
		})
	}
}

func TestToSampleRoundTrip(t *testing.T) {
	for _, uv := range [][2]float64{{3, 4}, {-7.5, 2}, {0.1, -9}, {-4, -4}, {12, 0}} {
		u, v := ToUV(ToSample(uv[0], uv[1]))
		if math.Abs(u-uv[0]) > 1e-9 || math.Abs(v-uv[1]) > 1e-9 {
			t.Errorf("ToUV(ToSample(%f, %f)) = (%f, %f)", uv[0], uv[1], u, v)
		}
	}
}

func TestInterpolateUV(t *testing.T) {
	u, v := InterpolateUV(0, 10, 10, 0, 0.25)
	if u != 2.5 || v != 7.5 {
		t.Errorf("InterpolateUV(0, 10, 10, 0, 0.25) = (%f, %f); want (2.5, 7.5)", u, v)
	}
}

func TestTwaHeading(t *testing.T) {
	if twa := Twa(45, 270); twa != 135 {
		t.Errorf("Twa(45, 270) = %f; want 135", twa)
	}
	if twa := Twa(135, 270); twa != -135 {
		t.Errorf("Twa(135, 270) = %f; want -135", twa)
	}
	if twa := Twa(90, 270); twa != 180 {
		t.Errorf("Twa(90, 270) = %f; want 180", twa)
	}
	if h := Heading(135, 270); h != 45 {
		t.Errorf("Heading(135, 270) = %f; want 45", h)
	}
	if h := Heading(-135, 270); h != 135 {
		t.Errorf("Heading(-135, 270) = %f; want 135", h)
	}
}

func TestStepAxis(t *testing.T) {
	f, err := NewField(uniformGrid([]float64{0, 180, 360}, []float64{1, 2, 3}, []float64{0, 0, 0}), Nearest)
	if err != nil {
		t.Fatal(err)
	}
	if f.StepMinutes() != 180 {
		t.Errorf("StepMinutes() = %f; want 180", f.StepMinutes())
	}
	if f.Horizon() != 360 {
		t.Errorf("Horizon() = %f; want 360", f.Horizon())
	}

	tests := []struct {
		minutes float64
		want    int
	}{
		{-10, 0}, {0, 0}, {179, 0}, {180, 1}, {359, 1}, {360, 2}, {5000, 2},
	}
	for _, tt := range tests {
		if got := f.StepIndex(tt.minutes); got != tt.want {
			t.Errorf("StepIndex(%f) = %d; want %d", tt.minutes, got, tt.want)
		}
	}
}

func TestBeyondHorizon(t *testing.T) {
	f, err := NewField(uniformGrid([]float64{0, 60}, []float64{1, 5}, []float64{2, -3}), Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	last := f.Wind(0.3, 0.4, f.Horizon())
	for _, m := range []float64{100000, 1e30, math.Inf(1)} {
		if beyond := f.Wind(0.3, 0.4, m); beyond != last {
			t.Errorf("Wind(%g) beyond horizon = %v; want %v", m, beyond, last)
		}
	}

	f, err = NewField(uniformGrid([]float64{0, 60, 120}, []float64{1, 2, 3}, []float64{0, 0, 0}), Nearest)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		minutes float64
		want    int
	}{
		{1e30, 2}, {math.Inf(1), 2}, {math.Inf(-1), 0}, {math.NaN(), 0}, {-1e30, 0},
	}
	for _, tt := range tests {
		if got := f.StepIndex(tt.minutes); got != tt.want {
			t.Errorf("StepIndex(%g) = %d; want %d", tt.minutes, got, tt.want)
		}
	}
	if got, want := f.Wind(0, 0, 1e30), ToSample(3, 0); got != want {
		t.Errorf("Wind(1e30) = %v; want the last step %v", got, want)
	}
}

func TestSingleStepDefaults(t *testing.T) {
	f, err := NewField(uniformGrid([]float64{0}, []float64{1}, []float64{0}), Nearest)
	if err != nil {
		t.Fatal(err)
	}
	if f.StepMinutes() != 60 || f.Horizon() != 0 {
		t.Errorf("single step: StepMinutes() = %f, Horizon() = %f; want 60, 0", f.StepMinutes(), f.Horizon())
	}
}

func TestNewFieldErrors(t *testing.T) {
	if _, err := NewField(nil, Nearest); err != ErrNoForecast {
		t.Errorf("NewField(nil) error = %v; want ErrNoForecast", err)
	}
	g := uniformGrid([]float64{0, 60}, []float64{1, 1}, []float64{0, 0})
	g.U = g.U[:1]
	if _, err := NewField(g, Nearest); err == nil {
		t.Errorf("NewField(mismatched steps) succeeded")
	}
	g = uniformGrid([]float64{60, 0}, []float64{1, 1}, []float64{0, 0})
	if _, err := NewField(g, Nearest); err == nil {
		t.Errorf("NewField(descending steps) succeeded")
	}
}

func rampGrid() *Grid {
	// u grows with longitude, v grows with latitude
	g := &Grid{Lat0: 10, Lon0: 0, ΔLat: -1, ΔLon: 1, NLat: 3, NLon: 3, Steps: []float64{0}}
	u := make([][]float64, 3)
	v := make([][]float64, 3)
	for i := 0; i < 3; i++ {
		u[i] = make([]float64, 3)
		v[i] = make([]float64, 3)
		for j := 0; j < 3; j++ {
			u[i][j] = float64(j)
			v[i][j] = 10 - float64(i)
		}
	}
	g.U = [][][]float64{u}
	g.V = [][][]float64{v}
	return g
}

func TestNearestAndBilinear(t *testing.T) {
	f, err := NewField(rampGrid(), Nearest)
	if err != nil {
		t.Fatal(err)
	}

	u, v := f.nearest(0, 9.4, 1.6)
	if u != 2 || v != 9 {
		t.Errorf("nearest(9.4, 1.6) = (%f, %f); want (2, 9)", u, v)
	}

	u, v = f.interpolate(0, 9.4, 1.6)
	if math.Abs(u-1.6) > 1e-9 || math.Abs(v-9.4) > 1e-9 {
		t.Errorf("interpolate(9.4, 1.6) = (%f, %f); want (1.6, 9.4)", u, v)
	}

	// outside the grid clamps to the border
	u, v = f.interpolate(0, 20, -5)
	if u != 0 || v != 10 {
		t.Errorf("interpolate(20, -5) = (%f, %f); want (0, 10)", u, v)
	}

	if f.Wind(9.4, 1.6, 0) != f.Nearest(9.4, 1.6, 0) {
		t.Errorf("Wind() with Nearest mode differs from Nearest()")
	}
}

func TestBilinearFallsBackToNearest(t *testing.T) {
	g := rampGrid()
	g.U[0][0][0] = math.NaN()
	f, err := NewField(g, Bilinear)
	if err != nil {
		t.Fatal(err)
	}

	// (9.6, 0.7) is inside the cell touching the missing value; nearest is (10, 1)
	got := f.Bilinear(9.6, 0.7, 0)
	want := ToSample(1, 10)
	if got != want {
		t.Errorf("Bilinear next to no-data = %v; want %v", got, want)
	}
}

func TestNoDataCell(t *testing.T) {
	g := &Grid{Lat0: 0, Lon0: 0, ΔLat: 1, ΔLon: 1, NLat: 2, NLon: 2, Steps: []float64{0}}
	g.U = [][][]float64{{{math.NaN(), 1}, {1, 1}}}
	g.V = [][][]float64{{{math.NaN(), 1}, {1, 1}}}
	f, err := NewField(g, Bilinear)
	if err != nil {
		t.Fatal(err)
	}

	if s := f.Wind(0, 0, 0); s.Valid() {
		t.Errorf("Wind on a no-data cell = %v; want an invalid sample", s)
	}
	if s := f.Wind(1, 1, 0); !s.Valid() {
		t.Errorf("Wind(1, 1) = %v; want a valid sample", s)
	}
}

func TestNonFiniteCoordinates(t *testing.T) {
	f, err := NewField(rampGrid(), Nearest)
	if err != nil {
		t.Fatal(err)
	}

	// non-finite coordinates read the grid origin
	if got, want := f.Nearest(math.NaN(), math.NaN(), 0), ToSample(0, 10); got != want {
		t.Errorf("Nearest(NaN, NaN) = %v; want %v", got, want)
	}
	if got, want := f.Bilinear(math.Inf(1), 1, 0), ToSample(1, 10); got != want {
		t.Errorf("Bilinear(+Inf, 1) = %v; want %v", got, want)
	}
	if got, want := f.WindAtTime(9, math.Inf(-1), 0), ToSample(0, 9); got != want {
		t.Errorf("WindAtTime(9, -Inf) = %v; want %v", got, want)
	}
}

func TestContinuousLongitude(t *testing.T) {
	g := &Grid{Lat0: 0, Lon0: 0, ΔLat: 1, ΔLon: 90, NLat: 2, NLon: 4, Steps: []float64{0}}
	u := [][]float64{{0, 1, 2, 3}, {0, 1, 2, 3}}
	v := [][]float64{{0, 0, 0, 0}, {0, 0, 0, 0}}
	g.U = [][][]float64{u}
	g.V = [][][]float64{v}
	f, err := NewField(g, Bilinear)
	if err != nil {
		t.Fatal(err)
	}

	// halfway between lon 270 (u=3) and lon 360 == 0 (u=0)
	uu, _ := f.interpolate(0, 0, 315)
	if math.Abs(uu-1.5) > 1e-9 {
		t.Errorf("interpolate(0, 315) u = %f; want 1.5", uu)
	}
	uu, _ = f.interpolate(0, 0, -90)
	if math.Abs(uu-3) > 1e-9 {
		t.Errorf("interpolate(0, -90) u = %f; want 3", uu)
	}
}

func TestWindAtTime(t *testing.T) {
	f, err := NewField(uniformGrid([]float64{0, 60}, []float64{0, 10}, []float64{0, 0}), Nearest)
	if err != nil {
		t.Fatal(err)
	}
	s := f.WindAtTime(0, 0, 30)
	if math.Abs(s.Speed-5*MsToKnots) > 1e-9 || s.Direction != 270 {
		t.Errorf("WindAtTime(30) = %v; want 5 m/s from 270", s)
	}
	s = f.WindAt(0, 0, 0, 1, 2)
	if math.Abs(s.Speed-10*MsToKnots) > 1e-9 {
		t.Errorf("WindAt(alpha=2) speed = %f; want alpha clamped to 1", s.Speed)
	}
	if f.WindAtTime(0, 0, 600) != f.WindAt(0, 0, 1, 1, 0) {
		t.Errorf("WindAtTime beyond horizon is not the last step")
	}
}

func TestAlongTrack(t *testing.T) {
	f, err := NewField(uniformGrid([]float64{0, 60}, []float64{0, 10}, []float64{0, 0}), Nearest)
	if err != nil {
		t.Fatal(err)
	}
	track := []latlon.LatLon{{Lat: 0, Lon: 0}, {Lat: 0.1, Lon: 0.1}, {Lat: 0.2, Lon: 0.2}}
	res := f.AlongTrack(track, 30)
	if len(res) != 3 {
		t.Fatalf("AlongTrack() returned %d samples; want 3", len(res))
	}
	if res[2].Minutes != 60 || math.Abs(res[2].Speed-10*MsToKnots) > 1e-9 {
		t.Errorf("AlongTrack()[2] = %v; want 10 m/s at 60 min", res[2])
	}
}
