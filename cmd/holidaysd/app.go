package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/firstone/holidays-google-poly/internal/config"
	"github.com/firstone/holidays-google-poly/internal/gcal"
	xlog "github.com/firstone/holidays-google-poly/internal/log"
	"github.com/firstone/holidays-google-poly/internal/nodes"
	"github.com/firstone/holidays-google-poly/internal/poller"
	"github.com/firstone/holidays-google-poly/internal/server"
)

// controllerName is the display name of the controller node on the ISY.
const controllerName = "Holidays Google Controller"

// app ties the pieces together and tracks the authentication state. Until a
// token exists the poller is not started; the pasted auth code arrives via
// config reload and flips the state.
type app struct {
	loader  *config.FileLoader
	mgr     *nodes.Manager
	creds   []byte
	version string

	mu      sync.Mutex
	cfg     *config.Config
	svc     *gcal.Service
	poller  *poller.Poller
	authURL string
	authed  chan struct{}
	rootCtx context.Context
}

func newApp(cfg *config.Config, loader *config.FileLoader, mgr *nodes.Manager, creds []byte, version string) *app {
	return &app{
		loader:  loader,
		mgr:     mgr,
		creds:   creds,
		version: version,
		cfg:     cfg,
		authed:  make(chan struct{}),
	}
}

// run drives the daemon lifecycle: authenticate (or wait for the pasted
// code), install the controller node, then poll until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	logger := xlog.WithComponent("app")

	a.mu.Lock()
	a.rootCtx = ctx
	cfg := a.cfg
	a.mu.Unlock()

	svc, err := gcal.NewService(ctx, a.loader)
	switch {
	case errors.Is(err, gcal.ErrNoToken):
		authURL, err := gcal.AuthURL(a.creds)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.authURL = authURL
		a.mu.Unlock()
		printAuthInstructions(authURL)
		logger.Info().Str("event", "auth.pending").Msg("waiting for authentication code")

		// The code may already be sitting in the config from a prior save.
		if cfg.AuthCode != "" {
			a.tryExchange(cfg.AuthCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.authed:
		}
		// The config may have changed while authentication was pending.
		a.mu.Lock()
		svc = a.svc
		cfg = a.cfg
		a.mu.Unlock()
	case err != nil:
		return fmt.Errorf("gcal.NewService: %w", err)
	default:
		a.markAuthenticated(svc)
	}

	if err := a.mgr.EnsureController(ctx, controllerName); err != nil {
		return err
	}
	logger.Info().Str("event", "started").Msg("started Holidays Google server")

	p := poller.New(svc, a.mgr, cfg.Calendars, time.Duration(cfg.PollInterval)*time.Second)
	a.mu.Lock()
	a.poller = p
	a.mu.Unlock()

	defer a.shutdown(svc)
	return p.Run(ctx)
}

// shutdown persists the (possibly refreshed) token and reports the
// controller offline. Uses a fresh context; the run context is cancelled.
func (a *app) shutdown(svc *gcal.Service) {
	logger := xlog.WithComponent("app")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.PersistToken(a.loader); err != nil {
		logger.Warn().Err(err).Str("event", "token.persist_failed").Msg("could not persist token")
	}
	if err := a.mgr.Offline(ctx); err != nil {
		logger.Warn().Err(err).Str("event", "controller.offline_failed").Msg("could not report controller offline")
	}
}

// onConfig handles a config file reload.
func (a *app) onConfig(cfg *config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	pending := a.svc == nil
	p := a.poller
	a.mu.Unlock()

	if pending && cfg.AuthCode != "" {
		a.tryExchange(cfg.AuthCode)
		return
	}
	if p != nil {
		p.SetCalendars(cfg.Calendars)
	}
}

// tryExchange trades the pasted code for a token and completes startup.
func (a *app) tryExchange(code string) {
	logger := xlog.WithComponent("app")

	a.mu.Lock()
	ctx := a.rootCtx
	a.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := gcal.Exchange(ctx, a.creds, code, a.loader); err != nil {
		logger.Error().Err(err).Str("event", "auth.exchange_failed").Msg("error getting credentials")
		return
	}
	svc, err := gcal.NewService(ctx, a.loader)
	if err != nil {
		logger.Error().Err(err).Str("event", "auth.service_failed").Msg("error opening calendar service")
		return
	}
	logger.Info().Str("event", "auth.completed").Msg("Google API connection opened")
	a.markAuthenticated(svc)
}

func (a *app) markAuthenticated(svc *gcal.Service) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.svc != nil {
		return
	}
	a.svc = svc
	a.authURL = ""
	close(a.authed)
}

// Status implements server.Backend.
func (a *app) Status() server.Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := server.Status{
		Version:       a.version,
		Authenticated: a.svc != nil,
		AuthURL:       a.authURL,
		Configured:    append([]string(nil), a.cfg.Calendars...),
	}
	if a.poller != nil {
		st.Poll = a.poller.Status()
		st.Available = a.poller.Available()
	}
	return st
}

// Refresh implements server.Backend.
func (a *app) Refresh() bool {
	a.mu.Lock()
	p := a.poller
	a.mu.Unlock()
	if p == nil {
		return false
	}
	p.Refresh()
	return true
}

// printAuthInstructions writes the one interactive message this daemon has:
// where to authenticate and where to paste the code.
func printAuthInstructions(authURL string) {
	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	link := color.New(color.FgGreen).SprintFunc()

	fmt.Println(header("Authentication required."))
	fmt.Println("Visit the following link, grant calendar access, and paste")
	fmt.Println("the resulting code into the auth_code field of the config file:")
	fmt.Println(link(authURL))
}
