package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firstone/holidays-google-poly/internal/config"
	"github.com/firstone/holidays-google-poly/internal/isy"
	xlog "github.com/firstone/holidays-google-poly/internal/log"
	"github.com/firstone/holidays-google-poly/internal/nodes"
	"github.com/firstone/holidays-google-poly/internal/server"
)

//go:embed .version
var versionFS embed.FS

func version() string {
	b, err := versionFS.ReadFile(".version")
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(b))
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("holidaysd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println("holidaysd", version())
		return nil
	}

	dataDir, err := config.DataDirFromEnv()
	if err != nil {
		return err
	}

	// Config path: explicit via --config, otherwise the data dir copy if it
	// exists. With neither, configuration comes from the environment alone.
	effectivePath := strings.TrimSpace(*configPath)
	if effectivePath == "" {
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectivePath = autoPath
		}
	}

	cfg, err := config.Load(effectivePath, dataDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Service: cfg.LogService})
	logger := xlog.WithComponent("daemon")
	logger.Info().
		Str("event", "config.loaded").
		Str("path", effectivePath).
		Int("calendars", len(cfg.Calendars)).
		Int("poll_interval", cfg.PollInterval).
		Msg("loaded configuration")

	loader := config.NewFileLoader(dataDir)
	creds, err := loader.LoadCredentials()
	if err != nil {
		return fmt.Errorf("loading Google client secret: %w", err)
	}

	isyClient := isy.New(cfg.ISY.BaseURL, cfg.ISY.Profile, cfg.ISY.Username, cfg.ISY.Password)
	mgr, err := nodes.NewManager(isyClient, filepath.Join(dataDir, "roster.json"))
	if err != nil {
		return fmt.Errorf("loading node roster: %w", err)
	}

	a := newApp(cfg, loader, mgr, creds, version())

	g, ctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(a),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		logger.Info().Str("event", "http.listen").Str("addr", cfg.Listen).Msg("admin API listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})

	if effectivePath != "" {
		watcher := config.NewWatcher(effectivePath, dataDir, a.onConfig)
		g.Go(func() error { return watcher.Run(ctx) })
	}

	g.Go(func() error { return a.run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		logger := xlog.WithComponent("daemon")
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
}
