package wind

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFileName(t *testing.T) {
	f, err := parseFileName("2020070106.f003")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2020, 7, 1, 9, 0, 0, 0, time.UTC)
	if !f.valid.Equal(want) {
		t.Errorf("parseFileName(2020070106.f003).valid = %s; want %s", f.valid, want)
	}

	for _, name := range []string{"foo", "2020070106.x", "20200701.f003", "2020070106.fabc"} {
		if _, err := parseFileName(name); err == nil {
			t.Errorf("parseFileName(%s) succeeded", name)
		}
	}
}

func TestListForecastPrefersLatestRun(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2020070100.f006", "2020070106.f000", "2020070106.f003", "2020070106.f006.tmp", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := listForecast(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("listForecast() returned %d files; want 2", len(files))
	}
	if filepath.Base(files[0].name) != "2020070106.f000" || filepath.Base(files[1].name) != "2020070106.f003" {
		t.Errorf("listForecast() = %s, %s", files[0].name, files[1].name)
	}
}

func TestUniformSteps(t *testing.T) {
	t0 := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	var files []gribFile
	for _, h := range []int{0, 3, 6, 9, 15, 21} {
		files = append(files, gribFile{valid: t0.Add(time.Duration(h) * time.Hour)})
	}
	if got := uniformSteps(files); len(got) != 4 {
		t.Errorf("uniformSteps() kept %d files; want 4", len(got))
	}
}

func TestLoadGribEmptyDir(t *testing.T) {
	_, err := LoadGrib(t.TempDir())
	if !errors.Is(err, ErrNoForecast) {
		t.Errorf("LoadGrib(empty) error = %v; want ErrNoForecast", err)
	}
}

func TestProvider(t *testing.T) {
	p := NewProvider("", Nearest)
	if _, err := p.Field(); err != ErrNoForecast {
		t.Errorf("Field() before load error = %v; want ErrNoForecast", err)
	}

	f, err := NewField(uniformGrid([]float64{0}, []float64{1}, []float64{0}), Nearest)
	if err != nil {
		t.Fatal(err)
	}
	p = NewStaticProvider(f)
	if got, err := p.Field(); err != nil || got != f {
		t.Errorf("Field() = %v, %v; want the static field", got, err)
	}
	if err := p.Load(); err != nil {
		t.Errorf("Load() on a static provider = %v", err)
	}
}
