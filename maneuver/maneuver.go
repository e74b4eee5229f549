package maneuver

import (
	"fmt"
	"math"
)

// Type is a maneuver kind. SailChange only keys the stamina cost table, the
// detector never returns it.
type Type int

const (
	None Type = iota
	Tack
	Gybe
	SailChange
)

const (
	minDelta     = 30.0
	upwind       = 45.0
	upwindSpan   = 60.0
	downwind     = 180.0
	downwindSpan = 90.0
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Tack:
		return "tack"
	case Gybe:
		return "gybe"
	case SailChange:
		return "sail"
	}
	return fmt.Sprintf("maneuver(%d)", int(t))
}

// Parse reads a key of the stamina rules document.
func Parse(key string) (Type, error) {
	switch key {
	case "none", "":
		return None, nil
	case "tack":
		return Tack, nil
	case "gybe":
		return Gybe, nil
	case "sail":
		return SailChange, nil
	}
	return None, fmt.Errorf("unknown maneuver '%s'", key)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Delta returns newTwa-prevTwa normalized to (-180, 180].
func Delta(prevTwa, newTwa float64) float64 {
	d := math.Mod(newTwa-prevTwa, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// Detect classifies the change of true wind angle between two ticks.
// The regime is read from the magnitude of the previous angle.
func Detect(prevTwa, newTwa float64) Type {
	if math.Abs(Delta(prevTwa, newTwa)) <= minDelta {
		return None
	}

	prev := math.Abs(prevTwa)
	if math.Abs(prev-upwind) < upwindSpan {
		return Tack
	}
	if math.Abs(prev-downwind) < downwindSpan {
		return Gybe
	}
	return None
}
