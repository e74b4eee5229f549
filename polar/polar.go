package polar

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("polar not found")

// Table is a boat speed matrix: rows follow the Twa axis, columns the Tws axis.
// A loaded table is never modified.
type Table struct {
	Twa   []float64   `json:"twa"`
	Tws   []float64   `json:"tws"`
	Speed [][]float64 `json:"speed"`
}

// Best is the result of an angle scan. Vmg is zero for BestAngleForSpeed.
type Best struct {
	Twa   int     `json:"twa"`
	Speed float64 `json:"speed"`
	Vmg   float64 `json:"vmg"`
}

// Path returns the file of a boat class and sail option:
// <dir>/<class>/<class>-nu.csv or <dir>/<class>/<class>-nu+<option>.csv.
func Path(dir, boatClass, sailOption string) string {
	option := strings.TrimSpace(sailOption)
	if option == "" {
		option = "nu"
	}
	if !strings.HasPrefix(option, "nu") {
		option = "nu+" + option
	}
	return filepath.Join(dir, boatClass, boatClass+"-"+option+".csv")
}

func Load(dir, boatClass, sailOption string) (*Table, error) {
	if info, err := os.Stat(filepath.Join(dir, boatClass)); boatClass == "" || err != nil || !info.IsDir() {
		return nil, fmt.Errorf("unknown boat class '%s': %w", boatClass, ErrNotFound)
	}

	path := Path(dir, boatClass, sailOption)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("'%s': %w", path, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	log.Debugf("Load polar %s", path)

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing '%s': %w", path, err)
	}
	return t, nil
}

// Parse reads a polar CSV. The first column is the Twa axis, the header of
// the other columns is the Tws axis. Fields may be separated by ',' or ';'.
// Empty cells are read as NaN.
func Parse(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := string(data)

	reader := csv.NewReader(strings.NewReader(content))
	firstLine := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		firstLine = content[:i]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, errors.New("polar needs at least one twa row and one tws column")
	}

	t := &Table{}
	for _, h := range records[0][1:] {
		tws, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return nil, fmt.Errorf("tws header '%s': %w", h, err)
		}
		t.Tws = append(t.Tws, tws)
	}

	for n, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("row %d has %d fields; want %d", n+1, len(record), len(records[0]))
		}
		twa, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("twa of row %d: %w", n+1, err)
		}
		row := make([]float64, len(t.Tws))
		for i, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				row[i] = math.NaN()
				continue
			}
			row[i], err = strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("speed of row %d: %w", n+1, err)
			}
		}
		t.Twa = append(t.Twa, twa)
		t.Speed = append(t.Speed, row)
	}

	if !ascending(t.Twa) || !ascending(t.Tws) {
		return nil, errors.New("polar axes must be ascending")
	}
	return t, nil
}

func ascending(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

// interpolationIndex returns the two indexes surrounding value and the
// weight of the first one.
func interpolationIndex(values []float64, value float64) (int, int, float64) {

	i := 0
	for values[i] < value {
		i++
		if i == len(values) {
			return i - 1, 0, 1
		}
	}

	if i > 0 {
		return i - 1, i, (values[i] - value) / (values[i] - values[i-1])
	}

	return 0, 0, 0
}

func clamp(v float64, values []float64) float64 {
	return math.Max(values[0], math.Min(values[len(values)-1], v))
}

// BoatSpeed returns the boat speed in knots for a true wind speed (knots) and
// angle. Port and starboard are symmetric and both inputs are clamped to the
// table; the angle axis is interpolated first for each Tws column, then the
// resulting curve at tws.
func (t *Table) BoatSpeed(tws float64, twa float64) float64 {
	a := math.Abs(twa)
	if a > 180 {
		a = 360 - a
	}
	a = clamp(a, t.Twa)
	tws = clamp(tws, t.Tws)

	twaIndex0, twaIndex1, twaFactor := interpolationIndex(t.Twa, a)

	curve := make([]float64, len(t.Tws))
	for i := range t.Tws {
		curve[i] = mix(t.Speed[twaIndex0][i], t.Speed[twaIndex1][i], twaFactor)
	}

	twsIndex0, twsIndex1, twsFactor := interpolationIndex(t.Tws, tws)
	return mix(curve[twsIndex0], curve[twsIndex1], twsFactor)
}

// mix weights a by w and b by 1-w. A value with no weight is not read, so a
// missing cell only spoils the lookups that actually depend on it.
func mix(a, b, w float64) float64 {
	if w == 1 {
		return a
	}
	if w == 0 {
		return b
	}
	return b + (a-b)*w
}

// BestAngleForSpeed scans every integer angle of the table for the fastest one.
func (t *Table) BestAngleForSpeed(tws float64) (Best, bool) {
	best := Best{}
	found := false
	for twa := int(t.Twa[0]); twa <= int(t.Twa[len(t.Twa)-1]); twa++ {
		bs := t.BoatSpeed(tws, float64(twa))
		if bs > best.Speed {
			best = Best{Twa: twa, Speed: bs}
			found = true
		}
	}
	return best, found
}

// BestVmgUpwind scans 30° to 90°.
func (t *Table) BestVmgUpwind(tws float64) Best {
	return t.bestVmg(tws, 30, 90, func(twa float64) float64 { return math.Cos(twa * math.Pi / 180) })
}

// BestVmgDownwind scans 90° to 150°.
func (t *Table) BestVmgDownwind(tws float64) Best {
	return t.bestVmg(tws, 90, 150, func(twa float64) float64 { return math.Cos((180 - twa) * math.Pi / 180) })
}

func (t *Table) bestVmg(tws float64, from, to int, projection func(float64) float64) Best {
	best := Best{Vmg: -1e9}
	for twa := from; twa <= to; twa++ {
		bs := t.BoatSpeed(tws, float64(twa))
		vmg := bs * projection(float64(twa))
		if vmg > best.Vmg {
			best = Best{Twa: twa, Speed: bs, Vmg: vmg}
		}
	}
	return best
}

// Equal reports whether two tables have the same axes and speeds within tolerance.
// NaN cells only match NaN cells.
func (t *Table) Equal(o *Table, tolerance float64) bool {
	if len(t.Twa) != len(o.Twa) || len(t.Tws) != len(o.Tws) {
		return false
	}
	for i := range t.Twa {
		if t.Twa[i] != o.Twa[i] {
			return false
		}
	}
	for j := range t.Tws {
		if t.Tws[j] != o.Tws[j] {
			return false
		}
	}
	for i := range t.Speed {
		for j := range t.Speed[i] {
			a, b := t.Speed[i][j], o.Speed[i][j]
			if math.IsNaN(a) || math.IsNaN(b) {
				if math.IsNaN(a) != math.IsNaN(b) {
					return false
				}
				continue
			}
			if math.Abs(a-b) > tolerance {
				return false
			}
		}
	}
	return true
}
