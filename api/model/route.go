package model

import (
	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/polar"
	"github.com/a-bouts/nav-sim/route"
	"github.com/a-bouts/nav-sim/store"
	"github.com/a-bouts/nav-sim/wind"
)

// Route is a route query. When Race is set, the missing start, waypoints
// and boat are taken from the race definition.
type Route struct {
	Name      string           `json:"name"`
	Race      string           `json:"race"`
	Start     *latlon.LatLon   `json:"start"`
	Waypoints []route.Waypoint `json:"waypoints"`
	Boat      string           `json:"boat"`
	Option    string           `json:"option"`
	Stamina   *float64         `json:"stamina"`
	Params    Params           `json:"params"`
}

type Params struct {
	Step        float64 `json:"step"`
	MaxDuration float64 `json:"maxDuration"`
	Equipment   bool    `json:"equipment"`
	Winds       bool    `json:"winds"`
}

type Result struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	route.Result
	Winds []wind.TrackWind `json:"winds,omitempty"`
}

type Run struct {
	store.Run
	Track route.Track `json:"track"`
}

type Best struct {
	Speed    *polar.Best `json:"speed"`
	Upwind   polar.Best  `json:"upwind"`
	Downwind polar.Best  `json:"downwind"`
}

type Wind struct {
	Wind         float64     `json:"wind"`
	Speed        float64     `json:"speed"`
	Step         int         `json:"step"`
	Interpolated wind.Sample `json:"interpolated"`
}

type Error struct {
	Error string `json:"error"`
}
