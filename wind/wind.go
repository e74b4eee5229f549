package wind

import (
	"errors"
	"math"

	"github.com/a-bouts/nav-sim/latlon"
)

var ErrNoForecast = errors.New("no forecast available")

const defaultStepMinutes = 60.0

// Grid holds U and V (m/s) on a regular lat/lon grid for every forecast step.
// U and V are indexed [step][lat][lon]. Steps are minutes from the first step.
type Grid struct {
	Lat0  float64
	Lon0  float64
	ΔLat  float64
	ΔLon  float64
	NLat  int
	NLon  int
	Steps []float64
	U     [][][]float64
	V     [][][]float64
}

func (g *Grid) validate() error {
	if g == nil || len(g.Steps) == 0 {
		return ErrNoForecast
	}
	if g.NLat < 1 || g.NLon < 1 || g.ΔLat == 0 || g.ΔLon == 0 {
		return errors.New("invalid grid geometry")
	}
	if len(g.U) != len(g.Steps) || len(g.V) != len(g.Steps) {
		return errors.New("grid steps and data mismatch")
	}
	for s := range g.Steps {
		if len(g.U[s]) != g.NLat || len(g.V[s]) != g.NLat {
			return errors.New("grid latitude size mismatch")
		}
		for j := 0; j < g.NLat; j++ {
			if len(g.U[s][j]) != g.NLon || len(g.V[s][j]) != g.NLon {
				return errors.New("grid longitude size mismatch")
			}
		}
	}
	return nil
}

// Mode selects how Field.Wind reads the grid.
type Mode int

const (
	Nearest Mode = iota
	Bilinear
)

// Field is the only reader of a Grid. It is immutable once built and can be
// shared by concurrent runs.
type Field struct {
	grid        *Grid
	mode        Mode
	stepMinutes float64
	continuous  bool
}

func NewField(g *Grid, mode Mode) (*Field, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	step := defaultStepMinutes
	if len(g.Steps) > 1 {
		step = g.Steps[1] - g.Steps[0]
		if step <= 0 {
			return nil, errors.New("forecast steps are not ascending")
		}
	}

	return &Field{
		grid:        g,
		mode:        mode,
		stepMinutes: step,
		continuous:  math.Floor(float64(g.NLon)*math.Abs(g.ΔLon)) >= 360,
	}, nil
}

// StepMinutes is the spacing of the forecast step axis.
func (f *Field) StepMinutes() float64 {
	return f.stepMinutes
}

// Horizon is the time of the last forecast step, in minutes.
func (f *Field) Horizon() float64 {
	return float64(len(f.grid.Steps)-1) * f.stepMinutes
}

func (f *Field) Steps() int {
	return len(f.grid.Steps)
}

// StepIndex clamps past the horizon to the last step. NaN reads as step 0.
func (f *Field) StepIndex(minutes float64) int {
	if math.IsNaN(minutes) || minutes <= 0 {
		return 0
	}
	if minutes >= f.Horizon() {
		return len(f.grid.Steps) - 1
	}
	return f.clampStep(int(math.Floor(minutes / f.stepMinutes)))
}

func (f *Field) Wind(lat, lon, minutes float64) Sample {
	if f.mode == Bilinear {
		return f.Bilinear(lat, lon, minutes)
	}
	return f.Nearest(lat, lon, minutes)
}

func (f *Field) Nearest(lat, lon, minutes float64) Sample {
	u, v := f.nearest(f.StepIndex(minutes), lat, lon)
	return ToSample(u, v)
}

// Bilinear falls back to the nearest cell when a neighbour has no data.
func (f *Field) Bilinear(lat, lon, minutes float64) Sample {
	u, v := f.interpolate(f.StepIndex(minutes), lat, lon)
	return ToSample(u, v)
}

// WindAt blends steps step0 and step1 at alpha before converting to a sample.
func (f *Field) WindAt(lat, lon float64, step0, step1 int, alpha float64) Sample {
	step0 = f.clampStep(step0)
	step1 = f.clampStep(step1)
	alpha = math.Max(0, math.Min(1, alpha))

	u0, v0 := f.interpolate(step0, lat, lon)
	u1, v1 := f.interpolate(step1, lat, lon)
	return ToSample(InterpolateUV(u0, v0, u1, v1, alpha))
}

// WindAtTime interpolates in time between the two steps surrounding minutes.
func (f *Field) WindAtTime(lat, lon, minutes float64) Sample {
	s0 := f.StepIndex(minutes)
	if s0 == len(f.grid.Steps)-1 {
		return f.WindAt(lat, lon, s0, s0, 0)
	}
	alpha := minutes/f.stepMinutes - float64(s0)
	return f.WindAt(lat, lon, s0, s0+1, alpha)
}

type TrackWind struct {
	latlon.LatLon
	Minutes float64 `json:"minutes"`
	Sample
}

// AlongTrack samples the wind at each track point, point i being reached at i*stepMinutes.
func (f *Field) AlongTrack(track []latlon.LatLon, stepMinutes float64) []TrackWind {
	res := make([]TrackWind, 0, len(track))
	for i, p := range track {
		m := float64(i) * stepMinutes
		res = append(res, TrackWind{
			LatLon:  p,
			Minutes: m,
			Sample:  f.WindAtTime(p.Lat, p.Lon, m),
		})
	}
	return res
}

func (f *Field) clampStep(s int) int {
	if s < 0 {
		return 0
	}
	if s > len(f.grid.Steps)-1 {
		return len(f.grid.Steps) - 1
	}
	return s
}

func floorMod(a float64, n float64) float64 {
	return a - n*math.Floor(a/n)
}

// indexes returns fractional grid indexes, clamped to the grid. A non-finite
// coordinate reads as the grid origin.
func (f *Field) indexes(lat, lon float64) (float64, float64) {
	g := f.grid
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		lat = g.Lat0
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		lon = g.Lon0
	}

	i := (lat - g.Lat0) / g.ΔLat
	i = math.Max(0, math.Min(float64(g.NLat-1), i))

	var j float64
	if f.continuous {
		j = floorMod(lon-g.Lon0, 360.0) / math.Abs(g.ΔLon)
	} else {
		j = (lon - g.Lon0) / g.ΔLon
		j = math.Max(0, math.Min(float64(g.NLon-1), j))
	}
	return i, j
}

func (f *Field) lonIndex(j int) int {
	if f.continuous {
		return j % f.grid.NLon
	}
	if j > f.grid.NLon-1 {
		return f.grid.NLon - 1
	}
	return j
}

func (f *Field) nearest(step int, lat, lon float64) (float64, float64) {
	i, j := f.indexes(lat, lon)
	ni := int(math.Round(i))
	nj := f.lonIndex(int(math.Round(j)))
	return f.grid.U[step][ni][nj], f.grid.V[step][ni][nj]
}

func bilinearInterpolate(x float64, y float64, g00 []float64, g10 []float64, g01 []float64, g11 []float64) (float64, float64) {

	rx := (1 - x)
	ry := (1 - y)

	a := rx * ry
	b := x * ry
	c := rx * y
	d := x * y

	u := g00[0]*a + g10[0]*b + g01[0]*c + g11[0]*d
	v := g00[1]*a + g10[1]*b + g01[1]*c + g11[1]*d

	return u, v
}

func (f *Field) interpolate(step int, lat, lon float64) (float64, float64) {
	g := f.grid
	i, j := f.indexes(lat, lon)

	fi := int(i)
	if fi > g.NLat-2 {
		fi = g.NLat - 2
	}
	if fi < 0 {
		fi = 0
	}
	fj := int(j)
	if !f.continuous && fj > g.NLon-2 {
		fj = g.NLon - 2
	}
	if fj < 0 {
		fj = 0
	}

	// single row or column grids have no neighbours to blend with
	if g.NLat < 2 || g.NLon < 2 {
		return f.nearest(step, lat, lon)
	}

	fi1 := fi + 1
	fj0 := f.lonIndex(fj)
	fj1 := f.lonIndex(fj + 1)

	U := g.U[step]
	V := g.V[step]

	u, v := bilinearInterpolate(j-float64(fj), i-float64(fi),
		[]float64{U[fi][fj0], V[fi][fj0]},
		[]float64{U[fi][fj1], V[fi][fj1]},
		[]float64{U[fi1][fj0], V[fi1][fj0]},
		[]float64{U[fi1][fj1], V[fi1][fj1]})

	if math.IsNaN(u) || math.IsNaN(v) {
		return f.nearest(step, lat, lon)
	}
	return u, v
}
