package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-sim/api"
	"github.com/a-bouts/nav-sim/config"
	"github.com/a-bouts/nav-sim/polar"
	"github.com/a-bouts/nav-sim/race"
	"github.com/a-bouts/nav-sim/stamina"
	"github.com/a-bouts/nav-sim/store"
	"github.com/a-bouts/nav-sim/wind"
	"github.com/a-bouts/nav-sim/xmpp"
)

func main() {

	c, err := config.Parse("nav-sim", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	accessLog, err := setupLogging(c.LogLevel, c.LogFile)
	if err != nil {
		log.Fatal(err)
	}

	mode, _ := c.WindMode()
	winds := wind.NewProvider(c.GribDir, mode)
	if err := winds.Load(); err != nil {
		log.Warn("Starting without forecast")
	}
	if c.GribRefresh > 0 {
		winds.Start(c.GribRefresh)
	}

	polars, err := polar.NewLoader(c.PolarDir, c.PolarCache)
	if err != nil {
		log.Fatal(err)
	}

	var rules *stamina.Rules
	if c.StaminaFile != "" {
		if rules, err = stamina.LoadRules(c.StaminaFile); err != nil {
			log.WithError(err).Fatal("Unable to load stamina rules")
		}
	}

	races := race.NewRaces(c.RacesFile)
	if err := races.Load(); err != nil {
		log.WithError(err).Fatal("Unable to load races")
	}

	var db *store.Store
	if c.Database != "" {
		if db, err = store.Open(c.Database); err != nil {
			log.WithError(err).Fatal("Unable to open runs store")
		}
		defer db.Close()
	}

	x := &xmpp.Xmpp{Config: xmpp.Config{Host: c.XmppHost, Jid: c.XmppJid, Password: c.XmppPassword, To: c.XmppTo}}

	router := api.InitServer(c.CPUProfile, api.Deps{
		Winds:   winds,
		Polars:  polars,
		Rules:   rules,
		Races:   races,
		Store:   db,
		Xmpp:    x,
		Route:   c.Route(),
		Timeout: c.Timeout,
	})

	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           api.Handler(router, accessLog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Start server on %s", c.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdown, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.WithError(err).Error("Shutdown")
	}
}
