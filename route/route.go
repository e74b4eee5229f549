package route

import (
	"errors"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/maneuver"
	"github.com/a-bouts/nav-sim/stamina"
	"github.com/a-bouts/nav-sim/wind"
)

// ArrivalDistance is the planar distance, in degrees, under which a waypoint is reached.
const ArrivalDistance = 0.05

var ErrNoWaypoint = errors.New("route has no waypoint")

// Weather is the forecast as seen by a run.
type Weather interface {
	Wind(lat, lon, minutes float64) wind.Sample
	Horizon() float64
}

type Result struct {
	State     BoatState       `json:"state"`
	Track     Track           `json:"track"`
	Status    Status          `json:"status"`
	Waypoint  int             `json:"waypoint"`
	Maneuvers []ManeuverEvent `json:"maneuvers"`
	// Distance sailed along the track on the sphere, in nautical miles.
	Distance float64 `json:"distance"`
}

// Simulator advances one boat tick by tick toward its waypoints. It only
// reads its weather, polar and rules, so one Simulator can serve concurrent runs.
type Simulator struct {
	weather Weather
	boat    Boat
	rules   *stamina.Rules
	config  Config
}

// NewSimulator builds a simulator. Without rules the crew never tires.
func NewSimulator(weather Weather, boat Boat, rules *stamina.Rules, config Config) *Simulator {
	def := DefaultConfig()
	if config.StepMinutes <= 0 {
		config.StepMinutes = def.StepMinutes
	}
	if config.MaxDuration <= 0 {
		config.MaxDuration = def.MaxDuration
	}
	return &Simulator{weather: weather, boat: boat, rules: rules, config: config}
}

func (s *Simulator) Config() Config {
	return s.config
}

// Run sails the waypoints in order from start. A leg that is not reached
// within the forecast horizon or the maximum duration ends the run; the
// partial track is returned with the stop status.
func (s *Simulator) Run(start BoatState, waypoints []Waypoint) (Result, error) {
	if len(waypoints) == 0 {
		return Result{}, ErrNoWaypoint
	}

	r := run{
		Simulator: s,
		state:     start,
		crew:      stamina.New(s.rules, start.Stamina),
		limit:     math.Min(s.weather.Horizon(), s.config.MaxDuration),
	}
	r.state.Stamina = r.crew.Stamina()
	r.track = Track{start.LatLon}

	res := Result{Status: Running}
	for i, wp := range waypoints {
		res.Waypoint = i
		res.Status = r.leg(wp)
		if res.Status != Arrived {
			break
		}
		log.WithFields(log.Fields{
			"waypoint": i,
			"name":     wp.Name,
			"minutes":  r.state.Minutes,
		}).Debug("Waypoint reached")
	}
	if res.Status == Arrived {
		res.Waypoint = len(waypoints)
	}

	res.State = r.state
	res.Track = r.track
	res.Maneuvers = r.events
	res.Distance = latlon.LatLonHaversine{}.PathLength(r.track) / latlon.MetersPerNm

	log.WithFields(log.Fields{
		"status":    res.Status,
		"minutes":   res.State.Minutes,
		"points":    len(res.Track),
		"maneuvers": len(res.Maneuvers),
	}).Debug("Run done")

	return res, nil
}

// run is the mutable part of one simulation.
type run struct {
	*Simulator
	state  BoatState
	crew   stamina.Model
	limit  float64
	track  Track
	events []ManeuverEvent
}

func (r *run) stopStatus() Status {
	if r.weather.Horizon() <= r.config.MaxDuration {
		return WeatherExhausted
	}
	return TimeLimitReached
}

func (r *run) leg(wp Waypoint) Status {
	for {
		if r.state.Minutes >= r.limit {
			return r.stopStatus()
		}

		r.tick(wp)

		if (latlon.Planar{}).DistanceTo(r.state.LatLon, wp.LatLon) < ArrivalDistance {
			return Arrived
		}
	}
}

func (r *run) tick(wp Waypoint) {
	w := r.weather.Wind(r.state.Lat, r.state.Lon, r.state.Minutes)
	choice := ChooseHeading(r.state.LatLon, wp.LatLon, w, r.boat)

	speed := choice.Speed
	twa := choice.Twa
	if !w.Valid() {
		// no wind data here, the boat keeps its previous angle
		twa = r.state.Twa
	}
	if m := maneuver.Detect(r.state.Twa, twa); m != maneuver.None {
		ev := Penalize(speed, m, w.Speed, r.crew, r.config.Equipment, r.config.StepMinutes)
		ev.Minutes = r.state.Minutes
		ev.Lat = r.state.Lat
		ev.Lon = r.state.Lon
		r.events = append(r.events, ev)
		speed = ev.SpeedAfter
	}

	distance := speed * r.config.StepMinutes / 60.0
	r.state.LatLon = latlon.Planar{}.Advance(r.state.LatLon, choice.Heading, distance)
	r.state.Minutes += r.config.StepMinutes
	r.state.Stamina = r.crew.Stamina()
	r.state.Heading = choice.Heading
	r.state.Twa = twa
	r.state.Speed = speed

	r.track = append(r.track, r.state.LatLon)
}
