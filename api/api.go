package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-sim/api/model"
	"github.com/a-bouts/nav-sim/latlon"
	"github.com/a-bouts/nav-sim/polar"
	"github.com/a-bouts/nav-sim/race"
	"github.com/a-bouts/nav-sim/route"
	"github.com/a-bouts/nav-sim/stamina"
	"github.com/a-bouts/nav-sim/store"
	"github.com/a-bouts/nav-sim/track"
	"github.com/a-bouts/nav-sim/wind"
	"github.com/a-bouts/nav-sim/xmpp"
)

var errBadRequest = errors.New("bad request")

const (
	// minStepMinutes and maxTicks bound the work a single request may ask for.
	minStepMinutes = 1.0
	maxTicks       = 100000
)

// Deps are the shared, read-only collaborators of the handlers. Store and
// Xmpp are optional.
type Deps struct {
	Winds   *wind.Provider
	Polars  *polar.Loader
	Rules   *stamina.Rules
	Races   *race.Races
	Store   *store.Store
	Xmpp    *xmpp.Xmpp
	Route   route.Config
	Timeout time.Duration
}

type server struct {
	cpuprofile bool
	// profiling serializes profiled requests, pkg/profile allows one at a time.
	profiling *sync.Mutex
	Deps
}

func InitServer(cpuprofile bool, d Deps) *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	if d.Races == nil {
		d.Races = race.NewRaces("")
	}
	s := server{cpuprofile: cpuprofile, profiling: &sync.Mutex{}, Deps: d}

	apiV1 := router.PathPrefix("/route/api/v1").Subrouter()
	apiV1.HandleFunc("/-/healthz", s.healthz).Methods(http.MethodGet)
	apiV1.HandleFunc("/route", s.route).Methods(http.MethodPost)
	apiV1.HandleFunc("/route", s.routeQuery).Methods(http.MethodGet)
	apiV1.HandleFunc("/routes", s.routes).Methods(http.MethodPost)
	apiV1.HandleFunc("/races", s.races).Methods(http.MethodGet)
	apiV1.HandleFunc("/races/{name}/route", s.raceRoute).Methods(http.MethodPost)
	apiV1.HandleFunc("/wind/{lat}/{lon}/{minutes}", s.wind).Methods(http.MethodGet)
	apiV1.HandleFunc("/polar/{boat}/{option}/best/{tws}", s.best).Methods(http.MethodGet)
	apiV1.HandleFunc("/runs", s.runs).Methods(http.MethodGet)
	apiV1.HandleFunc("/tracks/{id}", s.track).Methods(http.MethodGet)

	return router
}

// Handler adds CORS and access logs to the router.
func Handler(router *mux.Router, accessLog io.Writer) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(accessLog, cors(router))
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status   string `json:"status"`
		Forecast bool   `json:"forecast"`
	}

	_, err := s.Winds.Field()
	json.NewEncoder(w).Encode(health{Status: "Ok", Forecast: err == nil})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, route.ErrNoWaypoint):
		return http.StatusBadRequest
	case errors.Is(err, polar.ErrNotFound), errors.Is(err, race.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wind.ErrNoForecast):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		logger.WithError(err).Error("Request failed")
	} else {
		logger.WithError(err).Infof("Request rejected with %d", code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(model.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func requestLogger(req *http.Request, action string) *log.Entry {
	fields := log.Fields{
		"action": action,
	}
	if ip, err := getIp(req); err == nil {
		fields["IP"] = ip
	}
	return log.WithFields(fields)
}

// prepare resolves a query into a job, reading the forecast snapshot once.
func (s *server) prepare(field *wind.Field, r *model.Route) (route.Job, error) {
	if r.Race != "" {
		rc, err := s.Races.Get(r.Race)
		if err != nil {
			return route.Job{}, err
		}
		if r.Name == "" {
			r.Name = rc.Name
		}
		if r.Start == nil {
			start := rc.Start
			r.Start = &start
		}
		if len(r.Waypoints) == 0 {
			r.Waypoints = rc.Route()
		}
		if r.Boat == "" {
			r.Boat, r.Option = rc.Boat, rc.Option
		}
	}

	if r.Start == nil {
		return route.Job{}, fmt.Errorf("missing start: %w", errBadRequest)
	}
	if r.Boat == "" {
		return route.Job{}, fmt.Errorf("missing boat: %w", errBadRequest)
	}
	if len(r.Waypoints) == 0 {
		return route.Job{}, route.ErrNoWaypoint
	}
	if !validPoint(*r.Start) {
		return route.Job{}, fmt.Errorf("invalid start %v: %w", *r.Start, errBadRequest)
	}
	for i, wp := range r.Waypoints {
		if !validPoint(wp.LatLon) {
			return route.Job{}, fmt.Errorf("invalid waypoint %d %v: %w", i, wp.LatLon, errBadRequest)
		}
	}

	table, err := s.Polars.Get(r.Boat, r.Option)
	if err != nil {
		return route.Job{}, err
	}

	cfg := s.Route
	if r.Params.Step > 0 {
		if r.Params.Step < minStepMinutes {
			return route.Job{}, fmt.Errorf("step %g below %g minute: %w", r.Params.Step, minStepMinutes, errBadRequest)
		}
		cfg.StepMinutes = r.Params.Step
	}
	if r.Params.MaxDuration > 0 {
		cfg.MaxDuration = r.Params.MaxDuration
	}
	if cfg.MaxDuration/cfg.StepMinutes > maxTicks {
		return route.Job{}, fmt.Errorf("more than %d steps of %g minutes: %w", maxTicks, cfg.StepMinutes, errBadRequest)
	}
	cfg.Equipment = cfg.Equipment || r.Params.Equipment

	start := route.NewBoatState(*r.Start, r.Boat, r.Option)
	if r.Stamina != nil {
		start.Stamina = *r.Stamina
	}

	return route.Job{
		Simulator: route.NewSimulator(field, table, s.Rules, cfg),
		Start:     start,
		Waypoints: r.Waypoints,
	}, nil
}

func validPoint(p latlon.LatLon) bool {
	for _, v := range []float64{p.Lat, p.Lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Lat >= -90 && p.Lat <= 90
}

// simulate runs the jobs under the request timeout. A run cannot be stopped
// once started, a late one finishes in the background and is dropped.
func (s *server) simulate(ctx context.Context, jobs []route.Job) ([]route.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	type outcome struct {
		results []route.Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := route.RunAll(ctx, jobs)
		done <- outcome{results, err}
	}()

	select {
	case o := <-done:
		return o.results, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// finish stores and announces a run.
func (s *server) finish(ctx context.Context, field *wind.Field, r model.Route, job route.Job, res route.Result) model.Result {
	out := model.Result{Name: r.Name, Result: res}
	if r.Params.Winds {
		out.Winds = field.AlongTrack(res.Track, job.Simulator.Config().StepMinutes)
	}

	if s.Store != nil {
		id, err := s.Store.Save(ctx, &store.Run{
			BoatClass:  r.Boat,
			SailOption: r.Option,
			Status:     res.Status.String(),
			Waypoint:   res.Waypoint,
			Minutes:    res.State.Minutes,
			Distance:   res.Distance,
			Track:      res.Track,
		})
		if err != nil {
			log.WithError(err).Error("Unable to store run")
		}
		out.ID = id
	}

	if s.Xmpp != nil {
		s.Xmpp.Notify(r.Name, res)
	}
	return out
}

func (s *server) run(w http.ResponseWriter, req *http.Request, r model.Route) {
	if s.cpuprofile {
		s.profiling.Lock()
		defer s.profiling.Unlock()
		defer profile.Start().Stop()
	}

	logger := requestLogger(req, "route")

	field, err := s.Winds.Field()
	if err != nil {
		writeError(w, logger, err)
		return
	}
	job, err := s.prepare(field, &r)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	logger.Infof("Route '%s' for %s (%s) through %d waypoints", r.Name, r.Boat, r.Option, len(job.Waypoints))

	start := time.Now()
	results, err := s.simulate(req.Context(), []route.Job{job})
	if err != nil {
		writeError(w, logger, err)
		return
	}

	logger.WithField("status", results[0].Status).Infof("Route took %s", time.Since(start))

	writeJSON(w, s.finish(req.Context(), field, r, job, results[0]))
}

func (s *server) route(w http.ResponseWriter, req *http.Request) {
	var r model.Route
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		writeError(w, requestLogger(req, "route"), fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}
	s.run(w, req, r)
}

func (s *server) routeQuery(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	values := make(map[string]float64)
	for _, k := range []string{"lat", "lon", "lat2", "lon2"} {
		v, err := strconv.ParseFloat(q.Get(k), 64)
		if err != nil {
			writeError(w, requestLogger(req, "route"), fmt.Errorf("parameter '%s': %w", k, errBadRequest))
			return
		}
		values[k] = v
	}

	r := model.Route{
		Name:  q.Get("name"),
		Start: &latlon.LatLon{Lat: values["lat"], Lon: values["lon"]},
		Waypoints: []route.Waypoint{
			{LatLon: latlon.LatLon{Lat: values["lat2"], Lon: values["lon2"]}},
		},
		Boat:   q.Get("boat"),
		Option: q.Get("option"),
	}
	s.run(w, req, r)
}

func (s *server) raceRoute(w http.ResponseWriter, req *http.Request) {
	var r model.Route
	if req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&r); err != nil && err != io.EOF {
			writeError(w, requestLogger(req, "race"), fmt.Errorf("%v: %w", err, errBadRequest))
			return
		}
	}
	r.Race = mux.Vars(req)["name"]
	s.run(w, req, r)
}

func (s *server) routes(w http.ResponseWriter, req *http.Request) {
	logger := requestLogger(req, "routes")

	var rs []model.Route
	if err := json.NewDecoder(req.Body).Decode(&rs); err != nil {
		writeError(w, logger, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}

	field, err := s.Winds.Field()
	if err != nil {
		writeError(w, logger, err)
		return
	}

	jobs := make([]route.Job, len(rs))
	for i := range rs {
		if jobs[i], err = s.prepare(field, &rs[i]); err != nil {
			writeError(w, logger, fmt.Errorf("route %d: %w", i, err))
			return
		}
	}

	start := time.Now()
	results, err := s.simulate(req.Context(), jobs)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	logger.Infof("%d routes took %s", len(jobs), time.Since(start))

	out := make([]model.Result, len(results))
	for i, res := range results {
		out[i] = s.finish(req.Context(), field, rs[i], jobs[i], res)
	}
	writeJSON(w, out)
}

func (s *server) races(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, s.Races.Names())
}

func parseFloats(vars map[string]string, keys ...string) ([]float64, error) {
	values := make([]float64, len(keys))
	for i, k := range keys {
		v, err := strconv.ParseFloat(vars[k], 64)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", k, errBadRequest)
		}
		values[i] = v
	}
	return values, nil
}

func (s *server) wind(w http.ResponseWriter, req *http.Request) {
	logger := requestLogger(req, "wind")

	v, err := parseFloats(mux.Vars(req), "lat", "lon", "minutes")
	if err != nil {
		writeError(w, logger, err)
		return
	}
	field, err := s.Winds.Field()
	if err != nil {
		writeError(w, logger, err)
		return
	}

	sample := field.Wind(v[0], v[1], v[2])
	res := model.Wind{
		Wind:         sample.Direction,
		Speed:        sample.Speed,
		Step:         field.StepIndex(v[2]),
		Interpolated: field.WindAtTime(v[0], v[1], v[2]),
	}

	logger.Debugf("Wind (%f,%f) at %.0f min : %.1f° %.1f kt", v[0], v[1], v[2], res.Wind, res.Speed)

	writeJSON(w, res)
}

func (s *server) best(w http.ResponseWriter, req *http.Request) {
	logger := requestLogger(req, "polar")
	vars := mux.Vars(req)

	v, err := parseFloats(vars, "tws")
	if err != nil {
		writeError(w, logger, err)
		return
	}
	table, err := s.Polars.Get(vars["boat"], vars["option"])
	if err != nil {
		writeError(w, logger, err)
		return
	}

	res := model.Best{
		Upwind:   table.BestVmgUpwind(v[0]),
		Downwind: table.BestVmgDownwind(v[0]),
	}
	if b, found := table.BestAngleForSpeed(v[0]); found {
		res.Speed = &b
	}
	writeJSON(w, res)
}

func (s *server) runs(w http.ResponseWriter, req *http.Request) {
	logger := requestLogger(req, "runs")
	if s.Store == nil {
		writeJSON(w, []store.Run{})
		return
	}

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	runs, err := s.Store.List(req.Context(), limit)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, runs)
}

func (s *server) track(w http.ResponseWriter, req *http.Request) {
	logger := requestLogger(req, "track")

	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		writeError(w, logger, fmt.Errorf("id: %w", errBadRequest))
		return
	}
	if s.Store == nil {
		writeError(w, logger, fmt.Errorf("runs are not stored: %w", store.ErrNotFound))
		return
	}

	run, err := s.Store.Get(req.Context(), id)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	if req.URL.Query().Get("format") == "msgpack" {
		w.Header().Set("Content-Type", track.ContentType)
		if err := track.Save(w, run.Track); err != nil {
			logger.WithError(err).Error("Unable to write track")
		}
		return
	}
	writeJSON(w, model.Run{Run: *run, Track: run.Track})
}

func getIp(r *http.Request) (string, error) {
	//Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}

	//Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP := net.ParseIP(ip)
		if netIP != nil {
			return ip, nil
		}
	}

	//Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}
	return "", fmt.Errorf("No valid ip found")
}
