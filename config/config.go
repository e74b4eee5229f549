package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/peterbourgon/ff"

	"github.com/a-bouts/nav-sim/route"
	"github.com/a-bouts/nav-sim/wind"
)

// Config is read once at startup and handed to the constructors.
type Config struct {
	Listen     string
	CPUProfile bool
	LogLevel   string
	LogFile    string

	GribDir     string
	GribMode    string
	GribRefresh uint64

	PolarDir    string
	PolarCache  int
	StaminaFile string
	RacesFile   string
	Database    string

	StepMinutes float64
	MaxDuration float64
	Equipment   bool
	Timeout     time.Duration

	XmppHost     string
	XmppJid      string
	XmppPassword string
	XmppTo       string
}

// Parse reads flags, then environment variables (GRIB_DIR for -grib-dir),
// then the optional -config file with one "flag value" per line.
func Parse(name string, args []string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var c Config

	fs.StringVar(&c.Listen, "listen", ":8888", "http listen address")
	fs.BoolVar(&c.CPUProfile, "cpuprofile", false, "profile each route request, profiled requests run one at a time")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&c.LogFile, "log-file", "", "rotated log file, stderr when empty")

	fs.StringVar(&c.GribDir, "grib-dir", "grib", "directory of YYYYMMDDHH.fHHH grib2 files")
	fs.StringVar(&c.GribMode, "grib-mode", "nearest", "wind lookup: nearest or bilinear")
	fs.Uint64Var(&c.GribRefresh, "grib-refresh", 300, "forecast reload interval in seconds, 0 to disable")

	fs.StringVar(&c.PolarDir, "polar-dir", "polars", "directory of <class>/<class>-<option>.csv polars")
	fs.IntVar(&c.PolarCache, "polar-cache", 32, "number of polars kept in memory")
	fs.StringVar(&c.StaminaFile, "stamina-file", "", "fatigue rules json, no fatigue when empty")
	fs.StringVar(&c.RacesFile, "races-file", "", "race definitions json")
	fs.StringVar(&c.Database, "database", "", "sqlite file storing runs, none when empty")

	fs.Float64Var(&c.StepMinutes, "step", 10, "simulation step in minutes")
	fs.Float64Var(&c.MaxDuration, "max-duration", 7*24*60, "maximum simulated duration in minutes")
	fs.BoolVar(&c.Equipment, "equipment", false, "winch or furler upgrade, softer maneuver penalty")
	fs.DurationVar(&c.Timeout, "timeout", 30*time.Second, "route request timeout")

	fs.StringVar(&c.XmppHost, "xmpp-host", "", "")
	fs.StringVar(&c.XmppJid, "xmpp-jid", "", "")
	fs.StringVar(&c.XmppPassword, "xmpp-password", "", "")
	fs.StringVar(&c.XmppTo, "xmpp-to", "", "")

	_ = fs.String("config", "", "config file")

	err := ff.Parse(fs, args,
		ff.WithEnvVarNoPrefix(),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		return Config{}, err
	}

	if _, err := c.WindMode(); err != nil {
		return Config{}, err
	}
	if c.StepMinutes <= 0 || c.MaxDuration <= 0 {
		return Config{}, fmt.Errorf("step and max-duration must be positive")
	}
	return c, nil
}

func (c Config) WindMode() (wind.Mode, error) {
	switch c.GribMode {
	case "", "nearest":
		return wind.Nearest, nil
	case "bilinear":
		return wind.Bilinear, nil
	}
	return wind.Nearest, fmt.Errorf("unknown grib mode '%s'", c.GribMode)
}

func (c Config) Route() route.Config {
	return route.Config{
		StepMinutes: c.StepMinutes,
		MaxDuration: c.MaxDuration,
		Equipment:   c.Equipment,
	}
}
