package polar

import (
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Loader caches polar tables by file. Concurrent requests for a table that is
// not loaded yet share a single file read.
type Loader struct {
	dir   string
	cache *lru.Cache[string, *Table]
	group singleflight.Group
}

func NewLoader(dir string, size int) (*Loader, error) {
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New[string, *Table](size)
	if err != nil {
		return nil, err
	}
	return &Loader{dir: dir, cache: cache}, nil
}

func (l *Loader) Get(boatClass, sailOption string) (*Table, error) {
	k := Path(l.dir, boatClass, sailOption)
	if t, ok := l.cache.Get(k); ok {
		return t, nil
	}

	v, err, _ := l.group.Do(k, func() (interface{}, error) {
		if t, ok := l.cache.Get(k); ok {
			return t, nil
		}
		t, err := Load(l.dir, boatClass, sailOption)
		if err != nil {
			return nil, err
		}
		t = l.dedup(k, boatClass, sailOption, t)
		l.cache.Add(k, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// dedup returns the loaded bare hull table when an option file repeats it.
func (l *Loader) dedup(k, boatClass, sailOption string, t *Table) *Table {
	base := Path(l.dir, boatClass, "")
	if k == base {
		return t
	}
	b, ok := l.cache.Peek(base)
	if !ok || !b.Equal(t, 1e-9) {
		return t
	}
	log.WithFields(log.Fields{
		"boat":   boatClass,
		"option": sailOption,
	}).Warn("Polar option is identical to the bare hull")
	return b
}
