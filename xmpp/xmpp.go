package xmpp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-xmpp"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/nav-sim/route"
)

var ErrNotConfigured = errors.New("missing xmpp config")

// sending guards xmpp.DefaultConfig, which the client reads while connecting.
var sending sync.Mutex

type (
	// Config of the notifier. Host defaults to the jid server.
	Config struct {
		Host     string
		Jid      string
		Password string
		To       string
	}

	Xmpp struct {
		Config Config
	}
)

func serverName(jid string) string {
	parts := strings.SplitN(jid, "@", 2)
	if len(parts) < 2 {
		return jid
	}
	return strings.SplitN(parts[1], "/", 2)[0]
}

func (x Xmpp) Enabled() bool {
	return len(x.Config.Jid) > 0 && len(x.Config.Password) > 0 && len(x.Config.To) > 0
}

func (x Xmpp) Send(message string) error {

	if !x.Enabled() {
		return ErrNotConfigured
	}

	if len(x.Config.Host) == 0 {
		x.Config.Host = serverName(x.Config.Jid)
	}

	sending.Lock()
	defer sending.Unlock()

	xmpp.DefaultConfig = tls.Config{
		ServerName: serverName(x.Config.Jid),
	}

	options := xmpp.Options{
		Host:          x.Config.Host,
		User:          x.Config.Jid,
		Password:      x.Config.Password,
		NoTLS:         true,
		StartTLS:      true,
		Debug:         false,
		Session:       false,
		Status:        "xa",
		StatusMessage: "Sailing",
	}

	log.WithField("host", options.Host).Debug("Create xmpp client")
	talk, err := options.NewClient()
	if err != nil {
		return fmt.Errorf("xmpp client: %w", err)
	}
	defer talk.Close()

	_, err = talk.Send(xmpp.Chat{Remote: x.Config.To, Type: "chat", Text: message})
	return err
}

// Summary is the one line message sent at the end of a run.
func Summary(name string, res route.Result) string {
	hours := res.State.Minutes / 60
	return fmt.Sprintf("%s: %s after %dd%02dh, %.1f nm, %d maneuvers, stamina %.0f",
		name, res.Status, int(hours)/24, int(hours)%24, res.Distance, len(res.Maneuvers), res.State.Stamina)
}

// Notify sends the summary of res in the background when the notifier is configured.
func (x Xmpp) Notify(name string, res route.Result) {
	if !x.Enabled() {
		return
	}
	go func() {
		if err := x.Send(Summary(name, res)); err != nil {
			log.WithError(err).Warn("Unable to send run summary")
		}
	}()
}
