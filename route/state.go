package route

import (
	"encoding/json"
	"fmt"

	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/stamina"
)

type BoatState struct {
	latlon.LatLon
	Minutes    float64 `json:"minutes"`
	Stamina    float64 `json:"stamina"`
	Heading    float64 `json:"heading"`
	Twa        float64 `json:"twa"`
	Speed      float64 `json:"speed"`
	BoatClass  string  `json:"boat"`
	SailOption string  `json:"option"`
}

// NewBoatState returns a boat at rest with a rested crew.
func NewBoatState(start latlon.LatLon, boatClass, sailOption string) BoatState {
	return BoatState{
		LatLon:     start,
		Stamina:    stamina.Initial,
		BoatClass:  boatClass,
		SailOption: sailOption,
	}
}

type Waypoint struct {
	Name string `json:"name,omitempty"`
	latlon.LatLon
}

// Track is serialised as [[lat,lon],...].
type Track []latlon.LatLon

func (t Track) MarshalJSON() ([]byte, error) {
	points := make([][2]float64, len(t))
	for i, p := range t {
		points[i] = [2]float64{p.Lat, p.Lon}
	}
	return json.Marshal(points)
}

func (t *Track) UnmarshalJSON(data []byte) error {
	var points [][2]float64
	if err := json.Unmarshal(data, &points); err != nil {
		return err
	}
	*t = make(Track, len(points))
	for i, p := range points {
		(*t)[i] = latlon.LatLon{Lat: p[0], Lon: p[1]}
	}
	return nil
}

func (t Track) Last() latlon.LatLon {
	return t[len(t)-1]
}

type Status int

const (
	Running Status = iota
	Arrived
	WeatherExhausted
	TimeLimitReached
)

var statusNames = map[Status]string{
	Running:          "running",
	Arrived:          "arrived",
	WeatherExhausted: "weather_exhausted",
	TimeLimitReached: "time_limit_reached",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for k, n := range statusNames {
		if n == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status '%s'", text)
}

func ParseStatus(s string) (Status, error) {
	var st Status
	err := st.UnmarshalText([]byte(s))
	return st, err
}

type Config struct {
	StepMinutes float64 `json:"step"`
	MaxDuration float64 `json:"maxDuration"`
	// Equipment is a winch or furler upgrade that softens maneuver penalties.
	Equipment bool `json:"equipment"`
}

func DefaultConfig() Config {
	return Config{
		StepMinutes: 10,
		MaxDuration: 7 * 24 * 60,
	}
}
