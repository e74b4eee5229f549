package route

import (
	"math"

	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/wind"
)

const (
	minTwa = 30
	maxTwa = 180
)

// Boat is the part of a polar the optimizer needs. A NaN speed is a failed lookup.
type Boat interface {
	BoatSpeed(tws float64, twa float64) float64
}

type Choice struct {
	Heading float64 `json:"heading"`
	Twa     float64 `json:"twa"`
	Speed   float64 `json:"speed"`
	Vmg     float64 `json:"vmg"`
	Bearing float64 `json:"bearing"`
	Stalled bool    `json:"stalled,omitempty"`
}

// ChooseHeading scans integer wind angles from 30° to 180° on both tacks and
// keeps the heading with the best speed made good toward the target. The
// bearing is planar. The first maximum found wins. A wind sample without data
// fails every lookup and stalls the boat on the bearing.
func ChooseHeading(from, to latlon.LatLon, w wind.Sample, boat Boat) Choice {
	bearing := latlon.Planar{}.BearingTo(from, to)
	if !w.Valid() {
		return Choice{Heading: bearing, Bearing: bearing, Stalled: true}
	}

	found := false
	best := Choice{Bearing: bearing}
	for a := minTwa; a <= maxTwa; a++ {
		for _, sign := range [2]float64{-1, 1} {
			twa := sign * float64(a)
			bs := boat.BoatSpeed(w.Speed, twa)
			if !finite(bs) {
				continue
			}

			heading := wind.Heading(twa, w.Direction)
			vmg := bs * math.Cos(latlon.AngleBetween(heading, bearing)*math.Pi/180)
			if !found || vmg > best.Vmg {
				found = true
				best = Choice{Heading: heading, Twa: twa, Speed: bs, Vmg: vmg, Bearing: bearing}
			}
		}
	}

	if !found {
		return Choice{Heading: bearing, Twa: wind.Twa(bearing, w.Direction), Bearing: bearing, Stalled: true}
	}
	return best
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
