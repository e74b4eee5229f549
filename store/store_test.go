package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/a-bouts/nav-sim/latlon"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveGet(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	run := &Run{
		BoatClass:  "Imoca",
		SailOption: "foils",
		Status:     "arrived",
		Waypoint:   2,
		Minutes:    1950,
		Distance:   423.7,
		Track:      []latlon.LatLon{{Lat: 0, Lon: 0}, {Lat: 0.1, Lon: 0.1}, {Lat: 0.2, Lon: 0.25}},
	}
	id, err := s.Save(ctx, run)
	if err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if id == 0 || run.ID != id {
		t.Errorf("Save() = %d; run.ID = %d", id, run.ID)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get(%d) = %v", id, err)
	}
	if got.BoatClass != "Imoca" || got.SailOption != "foils" || got.Status != "arrived" || got.Waypoint != 2 || got.Minutes != 1950 || got.Distance != 423.7 {
		t.Errorf("Get(%d) = %+v", id, got)
	}
	if got.CreatedAt.Unix() != run.CreatedAt.Unix() {
		t.Errorf("CreatedAt = %v; want %v", got.CreatedAt, run.CreatedAt)
	}
	if len(got.Track) != 3 || got.Track[2] != run.Track[2] {
		t.Errorf("Track = %v; want %v", got.Track, run.Track)
	}
}

func TestGetNotFound(t *testing.T) {
	s := open(t)
	if _, err := s.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(42) error = %v; want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	for _, status := range []string{"arrived", "weather_exhausted", "time_limit_reached"} {
		if _, err := s.Save(ctx, &Run{BoatClass: "Figaro", Status: status, Track: []latlon.LatLon{{}}}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Status != "time_limit_reached" || runs[1].Status != "weather_exhausted" {
		t.Errorf("List(2) = %+v", runs)
	}
	if runs[0].Track != nil {
		t.Errorf("List() loads tracks")
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.Save(context.Background(), &Run{BoatClass: "Imoca", Status: "arrived", Track: []latlon.LatLon{{Lat: 1, Lon: 2}}})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	run, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%d) after reopening = %v", id, err)
	}
	if run.Track[0] != (latlon.LatLon{Lat: 1, Lon: 2}) {
		t.Errorf("Track = %v", run.Track)
	}
}
