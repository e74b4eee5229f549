package stamina

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-sim/maneuver"
)

const (
	Min     = 0.0
	Max     = 100.0
	Initial = Max
)

type threshold struct {
	Tws    float64
	Factor float64
}

// Rules are the fatigue constants of a boat. They are never modified once
// loaded.
type Rules struct {
	Points     map[maneuver.Type]float64
	Winds      []threshold
	Recovery   Recovery
	ImpactZero float64
	ImpactFull float64
}

type Recovery struct {
	Points float64 `json:"points"`
	LoTime float64 `json:"loTime"`
	HiTime float64 `json:"hiTime"`
}

type document struct {
	Consumption *struct {
		Points map[maneuver.Type]float64 `json:"points"`
		Winds  map[string]float64        `json:"winds"`
	} `json:"consumption"`
	Recovery *Recovery          `json:"recovery"`
	Impact   map[string]float64 `json:"impact"`
}

func LoadRules(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stamina rules: %w", err)
	}
	defer f.Close()

	rules, err := ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("stamina rules '%s': %w", path, err)
	}
	log.WithFields(log.Fields{
		"path":       path,
		"thresholds": len(rules.Winds),
	}).Debug("Load stamina rules")
	return rules, nil
}

func ParseRules(r io.Reader) (*Rules, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	if doc.Consumption == nil || len(doc.Consumption.Points) == 0 {
		return nil, errors.New("missing consumption points")
	}
	if doc.Recovery == nil {
		return nil, errors.New("missing recovery")
	}
	if doc.Recovery.LoTime <= 0 || doc.Recovery.HiTime < doc.Recovery.LoTime {
		return nil, fmt.Errorf("recovery times must satisfy 0 < loTime <= hiTime, got %g and %g", doc.Recovery.LoTime, doc.Recovery.HiTime)
	}
	zero, ok0 := doc.Impact["0"]
	full, ok100 := doc.Impact["100"]
	if !ok0 || !ok100 {
		return nil, errors.New("impact needs values for stamina 0 and 100")
	}

	rules := &Rules{
		Points:     doc.Consumption.Points,
		Recovery:   *doc.Recovery,
		ImpactZero: zero,
		ImpactFull: full,
	}
	for k, f := range doc.Consumption.Winds {
		tws, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return nil, fmt.Errorf("wind threshold '%s': %w", k, err)
		}
		rules.Winds = append(rules.Winds, threshold{Tws: tws, Factor: f})
	}
	sort.Slice(rules.Winds, func(i, j int) bool { return rules.Winds[i].Tws < rules.Winds[j].Tws })

	return rules, nil
}

// WindFactor is the multiplier of the highest threshold not above tws, 1
// below the first one.
func (r *Rules) WindFactor(tws float64) float64 {
	factor := 1.0
	for _, w := range r.Winds {
		if w.Tws > tws {
			break
		}
		factor = w.Factor
	}
	return factor
}

func (r *Rules) Cost(m maneuver.Type, tws float64) float64 {
	return r.Points[m] * r.WindFactor(tws)
}

// Model is the crew fatigue of one run.
type Model interface {
	Consume(m maneuver.Type, tws float64) float64
	Recover(minutes float64, tws float64) float64
	SpeedFactor() float64
	Stamina() float64
}

// New returns a Tracker for the given rules, or Fixed when there are none.
func New(rules *Rules, initial float64) Model {
	if rules == nil {
		return Fixed{}
	}
	return NewTracker(rules, initial)
}

// Tracker follows the stamina of a crew through maneuvers and rest.
type Tracker struct {
	rules   *Rules
	stamina float64
}

func NewTracker(rules *Rules, initial float64) *Tracker {
	return &Tracker{rules: rules, stamina: clamp(initial)}
}

func clamp(s float64) float64 {
	if math.IsNaN(s) {
		return Min
	}
	return math.Max(Min, math.Min(Max, s))
}

func (t *Tracker) Consume(m maneuver.Type, tws float64) float64 {
	cost := t.rules.Cost(m, tws)
	if cost > 0 {
		t.stamina = clamp(t.stamina - cost)
	}
	return t.stamina
}

func (t *Tracker) Recover(minutes float64, tws float64) float64 {
	if minutes <= 0 {
		return t.stamina
	}
	rec := t.rules.Recovery
	rate := rec.Points / math.Max(rec.LoTime, math.Min(rec.HiTime, minutes))
	if gained := rate * minutes; gained > 0 {
		t.stamina = clamp(t.stamina + gained)
	}
	return t.stamina
}

func (t *Tracker) SpeedFactor() float64 {
	if t.stamina <= Min {
		return t.rules.ImpactZero
	}
	if t.stamina >= Max {
		return t.rules.ImpactFull
	}
	return t.rules.ImpactFull + (t.rules.ImpactZero-t.rules.ImpactFull)*(1-t.stamina/Max)
}

func (t *Tracker) Stamina() float64 {
	return t.stamina
}

// Fixed is a crew that never tires.
type Fixed struct{}

func (Fixed) Consume(maneuver.Type, float64) float64 { return Max }
func (Fixed) Recover(float64, float64) float64 { return Max }
func (Fixed) SpeedFactor() float64 { return 1 }
func (Fixed) Stamina() float64 { return Max }
