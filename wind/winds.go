package wind

import (
	"sync"

	"github.com/jasonlvhit/gocron"
	log "github.com/sirupsen/logrus"
)

// Provider owns the current forecast Field and reloads it from a grib directory.
// Runs keep the snapshot they started with.
type Provider struct {
	dir   string
	mode  Mode
	field *Field
	lock  sync.RWMutex
}

func NewProvider(dir string, mode Mode) *Provider {
	return &Provider{dir: dir, mode: mode}
}

// NewStaticProvider serves a fixed field, without any reload.
func NewStaticProvider(f *Field) *Provider {
	return &Provider{field: f}
}

func (p *Provider) Field() (*Field, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.field == nil {
		return nil, ErrNoForecast
	}
	return p.field, nil
}

// Load replaces the current field. On failure the previous one is kept.
func (p *Provider) Load() error {
	if p.dir == "" {
		return nil
	}
	g, err := LoadGrib(p.dir)
	if err != nil {
		log.WithError(err).Errorf("Error loading forecast from '%s'", p.dir)
		return err
	}
	f, err := NewField(g, p.mode)
	if err != nil {
		return err
	}

	p.lock.Lock()
	p.field = f
	p.lock.Unlock()

	log.Infof("Forecast loaded: %d steps every %.0f min", f.Steps(), f.StepMinutes())
	return nil
}

// Start reloads the forecast every interval seconds.
func (p *Provider) Start(interval uint64) *gocron.Scheduler {
	s := gocron.NewScheduler()
	s.Every(interval).Seconds().Do(p.Load)

	go s.Start()

	return s
}
