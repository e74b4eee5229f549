package wind

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nilsmagnus/grib/griblib"
	log "github.com/sirupsen/logrus"
)

const stampLayout = "2006010215"

type gribFile struct {
	name  string
	run   time.Time
	valid time.Time
}

// parseFileName reads names like 2020070100.f003: run date then forecast hour.
func parseFileName(name string) (gribFile, error) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 || len(parts[1]) < 2 {
		return gribFile{}, fmt.Errorf("unexpected grib file name '%s'", name)
	}
	run, err := time.Parse(stampLayout, parts[0])
	if err != nil {
		return gribFile{}, fmt.Errorf("parsing date of '%s': %w", name, err)
	}
	h, err := strconv.Atoi(parts[1][1:])
	if err != nil {
		return gribFile{}, fmt.Errorf("getting hour from '%s': %w", name, err)
	}
	return gribFile{name: name, run: run, valid: run.Add(time.Hour * time.Duration(h))}, nil
}

// listForecast keeps one file per valid time, preferring the most recent run.
func listForecast(dir string) ([]gribFile, error) {
	var files []gribFile
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.WithError(err).Errorf("Error walking file '%s'", path)
			return nil
		}
		if !info.Mode().IsRegular() || strings.HasSuffix(info.Name(), ".tmp") {
			return nil
		}
		f, err := parseFileName(info.Name())
		if err != nil {
			log.WithError(err).Warn("Skipping grib file")
			return nil
		}
		f.name = path
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	byValid := make(map[time.Time]gribFile)
	for _, f := range files {
		if prev, found := byValid[f.valid]; !found || f.run.After(prev.run) {
			byValid[f.valid] = f
		}
	}

	res := make([]gribFile, 0, len(byValid))
	for _, f := range byValid {
		res = append(res, f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].valid.Before(res[j].valid) })
	return res, nil
}

// uniformSteps keeps the leading files whose valid times are evenly spaced,
// since the step index is derived from a single step duration.
func uniformSteps(files []gribFile) []gribFile {
	if len(files) < 3 {
		return files
	}
	step := files[1].valid.Sub(files[0].valid)
	for i := 2; i < len(files); i++ {
		if files[i].valid.Sub(files[i-1].valid) != step {
			log.Warnf("Forecast step changes after %s, dropping %d later files", files[i-1].valid.Format(stampLayout), len(files)-i)
			return files[:i]
		}
	}
	return files
}

type layer struct {
	lat0, lon0 float64
	Δlat, Δlon float64
	nlat, nlon int
	u, v       [][]float64
}

func buildGrid(data []float64, nlat, nlon int) [][]float64 {
	grid := make([][]float64, nlat)
	p := 0
	for j := 0; j < nlat; j++ {
		grid[j] = make([]float64, nlon)
		for i := 0; i < nlon; i++ {
			if p < len(data) {
				grid[j][i] = data[p]
			} else {
				grid[j][i] = math.NaN()
			}
			p++
		}
	}
	return grid
}

func readLayer(path string) (layer, error) {
	var l layer

	gribfile, err := os.Open(path)
	if err != nil {
		return l, err
	}
	defer gribfile.Close()

	messages, err := griblib.ReadMessages(gribfile)
	if err != nil {
		return l, err
	}
	for _, message := range messages {
		product := message.Section4.ProductDefinitionTemplate
		if message.Section0.Discipline != uint8(0) || product.ParameterCategory != uint8(2) || product.FirstSurface.Type != 103 || product.FirstSurface.Value != 10 {
			continue
		}
		grid0, ok := message.Section3.Definition.(*griblib.Grid0)
		if !ok {
			continue
		}
		l.lat0 = float64(grid0.La1) / 1e6
		l.lon0 = float64(grid0.Lo1) / 1e6
		l.Δlat = float64(grid0.Dj) / 1e6
		if grid0.La1 > grid0.La2 {
			l.Δlat = -l.Δlat
		}
		l.Δlon = float64(grid0.Di) / 1e6
		l.nlat = int(grid0.Nj)
		l.nlon = int(grid0.Ni)
		if product.ParameterNumber == 2 {
			l.u = buildGrid(message.Section7.Data, l.nlat, l.nlon)
		} else if product.ParameterNumber == 3 {
			l.v = buildGrid(message.Section7.Data, l.nlat, l.nlon)
		}
	}
	if l.u == nil || l.v == nil {
		return l, fmt.Errorf("no 10m wind in '%s'", path)
	}
	return l, nil
}

// LoadGrib reads every forecast file of dir into a Grid.
func LoadGrib(dir string) (*Grid, error) {
	files, err := listForecast(dir)
	if err != nil {
		return nil, err
	}
	files = uniformSteps(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in '%s'", ErrNoForecast, dir)
	}

	var g *Grid
	for _, f := range files {
		l, err := readLayer(f.name)
		if err != nil {
			log.WithError(err).Errorf("Error loading grib file '%s'", f.name)
			return nil, err
		}
		if g == nil {
			g = &Grid{Lat0: l.lat0, Lon0: l.lon0, ΔLat: l.Δlat, ΔLon: l.Δlon, NLat: l.nlat, NLon: l.nlon}
		} else if l.nlat != g.NLat || l.nlon != g.NLon || l.lat0 != g.Lat0 || l.lon0 != g.Lon0 {
			return nil, fmt.Errorf("grid of '%s' differs from the first forecast step", f.name)
		}
		g.Steps = append(g.Steps, f.valid.Sub(files[0].valid).Minutes())
		g.U = append(g.U, l.u)
		g.V = append(g.V, l.v)
		log.Debugf("Init %s %s", f.valid.Format(stampLayout), f.name)
	}
	return g, nil
}
