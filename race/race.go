package race

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/route"
)

var ErrNotFound = errors.New("race not found")

// RaceWaypoint is a mark or, with two latlons, a gate sailed through its middle.
type RaceWaypoint struct {
	Name      string          `json:"name"`
	Latlons   []latlon.LatLon `json:"latlons"`
	Validated bool            `json:"validated"`
}

type Race struct {
	Name      string         `json:"name"`
	Boat      string         `json:"boat"`
	Option    string         `json:"option"`
	Start     latlon.LatLon  `json:"start"`
	Waypoints []RaceWaypoint `json:"waypoints"`
}

func (r Race) IsValidated(index int) bool {
	return r.Waypoints[index].Validated
}

func (r Race) HasNextWaypoint(index int) bool {
	return index < len(r.Waypoints)
}

func (r Race) NextWaypoint(index int) RaceWaypoint {
	return r.Waypoints[index]
}

func (r Race) Reached(index int) int {
	return index + 1
}

func (w RaceWaypoint) target() latlon.LatLon {
	if len(w.Latlons) == 1 {
		return w.Latlons[0]
	}
	return latlon.LatLon{
		Lat: (w.Latlons[0].Lat + w.Latlons[1].Lat) / 2,
		Lon: (w.Latlons[0].Lon + w.Latlons[1].Lon) / 2,
	}
}

// Route returns the waypoints still to sail, in order.
func (r Race) Route() []route.Waypoint {
	var waypoints []route.Waypoint
	for i := 0; r.HasNextWaypoint(i); i = r.Reached(i) {
		if r.IsValidated(i) {
			continue
		}
		w := r.NextWaypoint(i)
		waypoints = append(waypoints, route.Waypoint{Name: w.Name, LatLon: w.target()})
	}
	return waypoints
}

func (r Race) validate() error {
	if r.Name == "" {
		return errors.New("race without a name")
	}
	if len(r.Waypoints) == 0 {
		return fmt.Errorf("race '%s' has no waypoint", r.Name)
	}
	for i, w := range r.Waypoints {
		if len(w.Latlons) != 1 && len(w.Latlons) != 2 {
			return fmt.Errorf("race '%s' waypoint %d needs one or two latlons, got %d", r.Name, i, len(w.Latlons))
		}
	}
	return nil
}

// Races holds the route definitions read from a races file.
type Races struct {
	path  string
	races map[string]Race
	lock  sync.RWMutex
}

func NewRaces(path string) *Races {
	return &Races{path: path, races: map[string]Race{}}
}

// Load reads the races file again. A missing path leaves no race.
func (rs *Races) Load() error {
	if rs.path == "" {
		return nil
	}
	content, err := os.ReadFile(rs.path)
	if err != nil {
		return fmt.Errorf("races: %w", err)
	}

	var list []Race
	if err := json.Unmarshal(content, &list); err != nil {
		return fmt.Errorf("races '%s': %w", rs.path, err)
	}

	races := make(map[string]Race, len(list))
	for _, r := range list {
		if err := r.validate(); err != nil {
			return err
		}
		races[r.Name] = r
	}

	rs.lock.Lock()
	rs.races = races
	rs.lock.Unlock()

	log.Infof("Loaded %d races from '%s'", len(races), rs.path)
	return nil
}

func (rs *Races) Get(name string) (Race, error) {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	r, found := rs.races[name]
	if !found {
		return Race{}, fmt.Errorf("'%s': %w", name, ErrNotFound)
	}
	return r, nil
}

func (rs *Races) Names() []string {
	rs.lock.RLock()
	defer rs.lock.RUnlock()

	names := make([]string, 0, len(rs.races))
	for n := range rs.races {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
