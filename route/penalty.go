package route

import (
	"github.com/a-bouts/nav-sim/maneuver"
	"github.com/a-bouts/nav-sim/stamina"
)

const (
	basePenalty      = 0.5
	equipmentPenalty = 0.7
)

type ManeuverEvent struct {
	Type        maneuver.Type `json:"type"`
	Minutes     float64       `json:"minutes"`
	Lat         float64       `json:"lat"`
	Lon         float64       `json:"lon"`
	Tws         float64       `json:"tws"`
	SpeedBefore float64       `json:"speedBefore"`
	SpeedAfter  float64       `json:"speedAfter"`
	Factor      float64       `json:"factor"`
	Duration    float64       `json:"duration"`
	StaminaLeft float64       `json:"staminaLeft"`
}

// Penalize charges the crew for the maneuver and slows the boat by the base
// penalty times the crew speed factor. Duration is only recorded.
func Penalize(speed float64, m maneuver.Type, tws float64, crew stamina.Model, equipment bool, duration float64) ManeuverEvent {
	crew.Consume(m, tws)

	penalty := basePenalty
	if equipment {
		penalty = equipmentPenalty
	}
	factor := penalty * crew.SpeedFactor()

	return ManeuverEvent{
		Type:        m,
		Tws:         tws,
		SpeedBefore: speed,
		SpeedAfter:  speed * factor,
		Factor:      factor,
		Duration:    duration,
		StaminaLeft: crew.Stamina(),
	}
}
